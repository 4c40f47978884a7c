// Package msix reads MSIX/APPX packages and their bundle variants: both
// are plain zip containers carrying an AppxManifest.xml (or, for a
// bundle, AppxBundleManifest.xml) plus an optional AppxSignature.p7x.
package msix

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mozilla.org/pkcs7"

	"github.com/installerscan/installerscan/architecture"
)

// Well-known zip entry names inside an MSIX/APPX container.
const (
	manifestEntry       = "AppxManifest.xml"
	bundleManifestEntry = "AppxBundleManifest.xml"
	signatureEntry      = "AppxSignature.p7x"
)

// ErrMissingManifest means the package had neither a package nor a bundle
// manifest at the location this format requires.
var ErrMissingManifest = errors.New("msix: missing AppxManifest.xml/AppxBundleManifest.xml")

// Info is the subset of MSIX/APPX metadata the rest of this module needs.
type Info struct {
	PackageFamilyName string
	Architecture      architecture.Architecture
	MinimumOSVersion  string
	Platform          []string // declared TargetDeviceFamily names, e.g. "Windows.Desktop"
	IsBundle          bool
	SignatureSHA256   string // empty when unsigned
}

// packageManifest mirrors the identity/dependencies fragment of
// AppxManifest.xml this module reads.
type packageManifest struct {
	XMLName  xml.Name `xml:"Package"`
	Identity struct {
		Name            string `xml:"Name,attr"`
		ProcessorArch   string `xml:"ProcessorArchitecture,attr"`
		Publisher       string `xml:"Publisher,attr"`
	} `xml:"Identity"`
	Dependencies struct {
		TargetDeviceFamily []struct {
			Name       string `xml:"Name,attr"`
			MinVersion string `xml:"MinVersion,attr"`
		} `xml:"TargetDeviceFamily"`
	} `xml:"Dependencies"`
}

// bundleManifest mirrors the fragment of AppxBundleManifest.xml this
// module reads: a bundle carries no single architecture of its own, only
// per-package references, so Info.Architecture stays empty for one.
type bundleManifest struct {
	XMLName  xml.Name `xml:"Bundle"`
	Identity struct {
		Name string `xml:"Name,attr"`
	} `xml:"Identity"`
}

var archTokens = map[string]architecture.Architecture{
	"x86":     architecture.X86,
	"x64":     architecture.X64,
	"arm":     architecture.Arm,
	"arm64":   architecture.Arm64,
	"neutral": architecture.Neutral,
}

// Read opens r (the size of the full zip container) and extracts Info.
func Read(r io.ReaderAt, size int64) (*Info, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("msix: %w", err)
	}

	if f := findEntry(zr, bundleManifestEntry); f != nil {
		return readBundleManifest(zr, f)
	}
	if f := findEntry(zr, manifestEntry); f != nil {
		return readPackageManifest(zr, f)
	}
	return nil, ErrMissingManifest
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

func readPackageManifest(zr *zip.Reader, f *zip.File) (*Info, error) {
	data, err := readZipEntry(f)
	if err != nil {
		return nil, fmt.Errorf("msix: reading %s: %w", manifestEntry, err)
	}

	var m packageManifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("msix: parsing %s: %w", manifestEntry, err)
	}

	info := &Info{
		PackageFamilyName: m.Identity.Name,
		Architecture:      archTokens[strings.ToLower(m.Identity.ProcessorArch)],
	}
	if len(m.Dependencies.TargetDeviceFamily) > 0 {
		info.MinimumOSVersion = m.Dependencies.TargetDeviceFamily[0].MinVersion
	}
	for _, fam := range m.Dependencies.TargetDeviceFamily {
		if fam.Name != "" {
			info.Platform = append(info.Platform, fam.Name)
		}
	}

	if sig := findEntry(zr, signatureEntry); sig != nil {
		digest, err := signatureDigest(sig)
		if err == nil {
			info.SignatureSHA256 = digest
		}
	}

	return info, nil
}

func readBundleManifest(zr *zip.Reader, f *zip.File) (*Info, error) {
	data, err := readZipEntry(f)
	if err != nil {
		return nil, fmt.Errorf("msix: reading %s: %w", bundleManifestEntry, err)
	}

	var m bundleManifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("msix: parsing %s: %w", bundleManifestEntry, err)
	}

	info := &Info{
		PackageFamilyName: m.Identity.Name,
		IsBundle:          true,
	}

	if sig := findEntry(zr, signatureEntry); sig != nil {
		digest, err := signatureDigest(sig)
		if err == nil {
			info.SignatureSHA256 = digest
		}
	}

	return info, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// signatureDigest hashes AppxSignature.p7x's raw bytes and, as a validity
// check, confirms the stream actually parses as a PKCS#7 SignedData
// structure before reporting the digest.
func signatureDigest(f *zip.File) (string, error) {
	raw, err := readZipEntry(f)
	if err != nil {
		return "", err
	}
	if _, err := pkcs7.Parse(raw); err != nil {
		return "", fmt.Errorf("msix: malformed %s: %w", signatureEntry, err)
	}
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}
