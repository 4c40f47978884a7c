// Package download fetches installer artifacts over HTTP, hashing each one
// inline as it streams to a temp file.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Kind classifies a download failure, mirroring the error taxonomy the
// rest of this module reports by.
type Kind int

// Recognized failure kinds.
const (
	KindNetwork Kind = iota
	KindMissingContentLength
	KindIO
	KindBadHeader
)

// Error wraps a download failure with its Kind and the URL it occurred on.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DownloadedFile is the result of one successful download: a temp file on
// disk plus the provenance needed to identify and verify it.
type DownloadedFile struct {
	URL          string
	Path         string
	SHA256       string // uppercase hex, 64 chars
	Filename     string
	LastModified *time.Time
}

// Client performs HTTP downloads. It exists so tests can substitute a
// fake http.Client without reaching the network.
type Client struct {
	HTTPClient *http.Client
	TempDir    string
}

// NewClient returns a Client using http.DefaultClient and the OS temp dir.
func NewClient() *Client {
	return &Client{HTTPClient: http.DefaultClient}
}

// Download fetches each unique URL in urls concurrently, bounded by
// concurrency (the host's logical CPU count is a reasonable default since
// the cost here is dominated by SHA-256, not network wait). Duplicate URLs
// are dropped first, and each URL's result lands at its index in that
// deduplicated list (which equals its input index only when urls has no
// duplicates); a failed download reports its *Error there rather than
// aborting its siblings.
func (c *Client) Download(ctx context.Context, urls []string, concurrency int) ([]*DownloadedFile, []error) {
	unique := dedupe(urls)

	results := make([]*DownloadedFile, len(unique))
	errs := make([]error, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range unique {
		i, u := i, u
		g.Go(func() error {
			df, err := c.downloadOne(gctx, u)
			results[i] = df
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func (c *Client) downloadOne(ctx context.Context, rawURL string) (*DownloadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindNetwork, URL: rawURL,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if resp.ContentLength < 0 {
		return nil, &Error{Kind: KindMissingContentLength, URL: rawURL,
			Err: errors.New("response missing Content-Length")}
	}

	tmp, err := os.CreateTemp(c.TempDir, "installerscan-*")
	if err != nil {
		return nil, &Error{Kind: KindIO, URL: rawURL, Err: err}
	}
	defer tmp.Close()

	hasher := sha256.New()
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			// Hash before the write lands on disk, so the digest always
			// reflects exactly the bytes observed from the wire in
			// arrival order, independent of write latency.
			hasher.Write(buf[:n])
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				os.Remove(tmp.Name())
				return nil, &Error{Kind: KindIO, URL: rawURL, Err: werr}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(tmp.Name())
			return nil, &Error{Kind: KindNetwork, URL: rawURL, Err: readErr}
		}
	}

	filename, err := filenameFor(resp, rawURL)
	if err != nil {
		os.Remove(tmp.Name())
		return nil, &Error{Kind: KindBadHeader, URL: rawURL, Err: err}
	}

	return &DownloadedFile{
		URL:          rawURL,
		Path:         tmp.Name(),
		SHA256:       strings.ToUpper(hex.EncodeToString(hasher.Sum(nil))),
		Filename:     filename,
		LastModified: lastModified(resp),
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// filenameFor resolves a filename in priority order: Content-Disposition,
// then the URL's last path segment, then a fresh UUIDv4.
func filenameFor(resp *http.Response, rawURL string) (string, error) {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if name, ok := filenameFromContentDisposition(cd); ok {
			return name, nil
		}
	}

	if name, ok := filenameFromURL(rawURL); ok {
		return name, nil
	}

	return uuid.New().String(), nil
}

// filenameFromContentDisposition splits the header on ';', trims each
// parameter, and returns the value of the first key beginning with
// "filename" (covering both "filename" and the RFC 5987 "filename*"
// variant), with surrounding double quotes stripped.
func filenameFromContentDisposition(header string) (string, bool) {
	for _, param := range strings.Split(header, ";") {
		param = strings.TrimSpace(param)
		key, value, found := strings.Cut(param, "=")
		if !found {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "filename") {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		if value == "" {
			continue
		}
		return value, true
	}
	return "", false
}

func filenameFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	segment := path.Base(u.Path)
	if segment == "" || segment == "." || segment == "/" {
		return "", false
	}
	return segment, true
}

// lastModified parses the Last-Modified header as RFC 2822/1123; a missing
// or unparsable header is downgraded to nil rather than surfaced as an
// error, since it's an optional field.
func lastModified(resp *http.Response) *time.Time {
	raw := resp.Header.Get("Last-Modified")
	if raw == "" {
		return nil
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}
