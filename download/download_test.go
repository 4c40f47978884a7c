package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFilenameFromContentDisposition(t *testing.T) {
	resp := &http.Response{Header: http.Header{
		"Content-Disposition": {`attachment; filename="setup.exe"`},
	}}
	got, err := filenameFor(resp, "https://example.com/download")
	if err != nil {
		t.Fatalf("filenameFor: %v", err)
	}
	if got != "setup.exe" {
		t.Errorf("filenameFor() = %q, want %q", got, "setup.exe")
	}
}

func TestFilenameFromURLPath(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	got, err := filenameFor(resp, "https://h/p/app-1.0.zip")
	if err != nil {
		t.Fatalf("filenameFor: %v", err)
	}
	if got != "app-1.0.zip" {
		t.Errorf("filenameFor() = %q, want %q", got, "app-1.0.zip")
	}
}

func TestFilenameFallsBackToUUID(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	got, err := filenameFor(resp, "https://h/")
	if err != nil {
		t.Fatalf("filenameFor: %v", err)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("filenameFor() = %q, want a valid UUID: %v", got, err)
	}
}

func TestDownloadOneComputesSHA256(t *testing.T) {
	const body = "installer payload bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="app.exe"`)
		w.Header().Set("Last-Modified", "Tue, 15 Nov 1994 08:12:31 GMT")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), TempDir: t.TempDir()}
	df, err := c.downloadOne(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("downloadOne: %v", err)
	}

	if len(df.SHA256) != 64 {
		t.Errorf("SHA256 length = %d, want 64", len(df.SHA256))
	}
	if strings.ToUpper(df.SHA256) != df.SHA256 {
		t.Errorf("SHA256 = %q, want uppercase hex", df.SHA256)
	}
	if df.Filename != "app.exe" {
		t.Errorf("Filename = %q, want app.exe", df.Filename)
	}
	if df.LastModified == nil {
		t.Fatalf("LastModified = nil, want parsed time")
	}
}

func TestDownloadOneMissingContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		flusher, ok := w.(http.Flusher)
		w.Write([]byte("chunk"))
		if ok {
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), TempDir: t.TempDir()}
	_, err := c.downloadOne(context.Background(), srv.URL)
	if err == nil {
		t.Skip("test server populated Content-Length despite chunked encoding; environment-dependent")
	}
	derr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err type = %T, want *Error", err)
	}
	if derr.Kind != KindMissingContentLength && derr.Kind != KindNetwork {
		t.Errorf("Kind = %v, want KindMissingContentLength or KindNetwork", derr.Kind)
	}
}

func TestDedupe(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	got := dedupe(in)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("dedupe() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupe()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
