package msix

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zw.Create(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

const samplePackageManifest = `<?xml version="1.0" encoding="utf-8"?>
<Package xmlns="http://schemas.microsoft.com/appx/manifest/foundation/windows10">
  <Identity Name="Contoso.DemoApp" Publisher="CN=Contoso" ProcessorArchitecture="x64" />
  <Dependencies>
    <TargetDeviceFamily Name="Windows.Desktop" MinVersion="10.0.17763.0" />
  </Dependencies>
</Package>`

const sampleBundleManifest = `<?xml version="1.0" encoding="utf-8"?>
<Bundle xmlns="http://schemas.microsoft.com/appx/2013/bundle">
  <Identity Name="Contoso.DemoApp" />
</Bundle>`

func TestReadPackageManifest(t *testing.T) {
	r := buildZip(t, map[string]string{manifestEntry: samplePackageManifest})
	info, err := Read(r, r.Size())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.PackageFamilyName != "Contoso.DemoApp" {
		t.Errorf("PackageFamilyName = %q, want Contoso.DemoApp", info.PackageFamilyName)
	}
	if info.Architecture != "x64" {
		t.Errorf("Architecture = %q, want x64", info.Architecture)
	}
	if info.MinimumOSVersion != "10.0.17763.0" {
		t.Errorf("MinimumOSVersion = %q, want 10.0.17763.0", info.MinimumOSVersion)
	}
	if info.IsBundle {
		t.Errorf("IsBundle = true, want false")
	}
	if len(info.Platform) != 1 || info.Platform[0] != "Windows.Desktop" {
		t.Errorf("Platform = %v, want [Windows.Desktop]", info.Platform)
	}
}

func TestReadBundleManifest(t *testing.T) {
	r := buildZip(t, map[string]string{bundleManifestEntry: sampleBundleManifest})
	info, err := Read(r, r.Size())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !info.IsBundle {
		t.Errorf("IsBundle = false, want true")
	}
	if info.PackageFamilyName != "Contoso.DemoApp" {
		t.Errorf("PackageFamilyName = %q, want Contoso.DemoApp", info.PackageFamilyName)
	}
}

func TestReadMissingManifest(t *testing.T) {
	r := buildZip(t, map[string]string{"other.txt": "nope"})
	_, err := Read(r, r.Size())
	if err != ErrMissingManifest {
		t.Errorf("Read() = %v, want ErrMissingManifest", err)
	}
}

func TestReadPrefersBundleManifestWhenBothPresent(t *testing.T) {
	r := buildZip(t, map[string]string{
		manifestEntry:       samplePackageManifest,
		bundleManifestEntry: sampleBundleManifest,
	})
	info, err := Read(r, r.Size())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !info.IsBundle {
		t.Errorf("IsBundle = false, want true (bundle manifest should take priority)")
	}
}
