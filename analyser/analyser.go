// Package analyser is the file analysis façade: given a downloaded
// artifact and the URL it came from, it classifies the installer family
// and extracts the structured metadata the rest of this module reports.
package analyser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/installerscan/installerscan/architecture"
	"github.com/installerscan/installerscan/installertype"
	"github.com/installerscan/installerscan/model"
	"github.com/installerscan/installerscan/msi"
	"github.com/installerscan/installerscan/msix"
	"github.com/installerscan/installerscan/pe"
	"github.com/installerscan/installerscan/urlarch"
	"github.com/installerscan/installerscan/ziparchive"
)

// known StringFileInfo keys this module resolves display metadata from, in
// order of preference. Only these exact key names are looked up; localized
// key spellings are not.
var (
	copyrightKeys = []string{"LegalCopyright", "Copyright"}
	productKeys   = []string{"ProductName", "FileDescription"}
	publisherKeys = []string{"CompanyName"}
)

// Options configures an Analyser.
type Options struct {
	Logger log.Logger
}

// Analyser turns a file on disk plus its source URL into model.AnalysedFile.
type Analyser struct {
	logger *log.Helper
}

// New constructs an Analyser. A nil Options uses a discarding logger.
func New(opts *Options) *Analyser {
	var logger log.Logger
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		logger = log.NewStdLogger(io.Discard)
	}
	return &Analyser{logger: log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelWarn)))}
}

// Request bundles the one downloaded artifact this module will analyse.
type Request struct {
	Path         string
	Filename     string
	URL          string
	SHA256       string
	LastModified *time.Time
	// Depth bounds zip-in-zip recursion; the spec's nested-archive step
	// goes exactly one level deep, so callers pass 0 and Analyze passes 1
	// when it recurses into a member.
	Depth int
}

const maxNestedDepth = 1

// Analyze classifies req and extracts its structured metadata.
func (a *Analyser) Analyze(req Request) (*model.AnalysedFile, error) {
	ext := extensionOf(req.Filename, req.URL)

	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("analyser: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("analyser: %w", err)
	}
	size := info.Size()

	out := &model.AnalysedFile{
		Filename:        req.Filename,
		InstallerSHA256: req.SHA256,
		LastModified:    req.LastModified,
	}

	var sig installertype.PESignals
	var peImg *pe.PEImage
	var isWix bool

	switch ext {
	case "msi":
		isWix = a.analyzeMSI(f, out)
	case "exe":
		peImg = a.openPE(req.Path, &sig)
		if peImg != nil {
			defer peImg.Close()
		}
	}

	itype, ok := installertype.Classify(ext, isWix, &sig)
	if !ok {
		return nil, fmt.Errorf("analyser: unsupported extension %q", ext)
	}
	out.Type = itype

	switch ext {
	case "msix", "msixbundle", "appx", "appxbundle":
		a.analyzeMsix(f, size, out)
	case "zip":
		a.analyzeZip(f, size, req, out)
	}

	if itype == installertype.Burn && peImg != nil {
		a.analyzeEmbeddedMSI(peImg, out)
	}

	if peImg != nil {
		a.applyPEMetadata(peImg, out)
	}

	a.resolveArchitecture(req.URL, out)

	return out, nil
}

func extensionOf(filename, rawURL string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "" {
		return ext
	}
	// Keep the longest match, so ".msixbundle" is not reported as "msix".
	best := ""
	for _, candidate := range urlarch.ValidExtensions {
		if len(candidate) > len(best) && strings.Contains(strings.ToLower(rawURL), "."+candidate) {
			best = candidate
		}
	}
	return best
}

// analyzeMSI reads the SummaryInformation stream and merges it into out,
// reporting whether the package carries a WiX signature.
func (a *Analyser) analyzeMSI(f *os.File, out *model.AnalysedFile) bool {
	info, err := msi.Read(f)
	if err != nil {
		a.logger.Warnf("msi: %v", err)
		return false
	}
	out.MSI = &model.MSIInfo{
		Architecture:    info.Architecture,
		ProductCode:     info.ProductCode,
		ProductLanguage: info.ProductLanguage,
		IsWix:           info.IsWix,
	}
	out.ProductCode = &info.ProductCode
	out.ProductLanguage = info.ProductLanguage
	if info.Architecture != "" {
		out.Architecture = info.Architecture
	}
	return info.IsWix
}

// openPE maps the .exe and parses its PE structure, populating sig from
// whatever version-info and resource signals it carries, for the
// installer-type classifier. A malformed PE is logged and treated as
// absent rather than aborting the whole analysis.
func (a *Analyser) openPE(path string, sig *installertype.PESignals) *pe.PEImage {
	img, err := pe.Open(path, nil)
	if err != nil {
		a.logger.Warnf("pe: %v", err)
		return nil
	}

	if vi, err := img.ParseVersionInfo(); err == nil {
		if comments, ok := vi.StringMap()["Comments"]; ok {
			sig.Comments = comments
			sig.HasComments = true
		}
	}

	if manifestXML, err := img.FirstManifestXML(); err == nil {
		if name, ok := installertype.AssemblyIdentityName(manifestXML); ok {
			sig.ManifestAssemblyName = name
			sig.HasManifest = true
		}
	}

	sig.HasBurnPayload = img.HasNamedRCDataEntry("msi")

	return img
}

func (a *Analyser) applyPEMetadata(img *pe.PEImage, out *model.AnalysedFile) {
	if arch, ok := architecture.FromMachine(img.Machine()); ok && out.Architecture == "" {
		out.Architecture = arch
	}

	vi, err := img.ParseVersionInfo()
	if err != nil {
		return
	}
	strs := vi.StringMap()
	out.Copyright = firstPresent(strs, copyrightKeys)
	out.PackageName = firstPresent(strs, productKeys)
	out.Publisher = firstPresent(strs, publisherKeys)
}

func firstPresent(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// analyzeEmbeddedMSI extracts and parses the MSI a Burn bootstrapper
// carries in its RT_RCDATA "MSI" resource.
func (a *Analyser) analyzeEmbeddedMSI(img *pe.PEImage, out *model.AnalysedFile) {
	raw, err := img.ExtractEmbeddedMSI()
	if err != nil {
		a.logger.Warnf("burn: extracting embedded msi: %v", err)
		return
	}
	info, err := msi.Read(bytes.NewReader(raw))
	if err != nil {
		a.logger.Warnf("burn: parsing embedded msi: %v", err)
		return
	}
	out.MSI = &model.MSIInfo{
		Architecture:    info.Architecture,
		ProductCode:     info.ProductCode,
		ProductLanguage: info.ProductLanguage,
		IsWix:           info.IsWix,
	}
	out.ProductCode = &info.ProductCode
	out.ProductLanguage = info.ProductLanguage
	if info.Architecture != "" {
		out.Architecture = info.Architecture
	}
}

func (a *Analyser) analyzeMsix(f *os.File, size int64, out *model.AnalysedFile) {
	info, err := msix.Read(f, size)
	if err != nil {
		a.logger.Warnf("msix: %v", err)
		return
	}
	out.PackageFamilyName = info.PackageFamilyName
	out.MinimumOSVersion = info.MinimumOSVersion
	out.SignatureSHA256 = info.SignatureSHA256
	if len(info.Platform) > 0 {
		out.Platform = info.Platform
	}
	if info.Architecture != "" {
		out.Architecture = info.Architecture
	}
}

// analyzeZip opens the zip's top-level entries and analyses exactly one
// level of nested installers; a zip found inside a zip is logged by name
// and skipped, not expanded further.
func (a *Analyser) analyzeZip(f *os.File, size int64, req Request, out *model.AnalysedFile) {
	if req.Depth >= maxNestedDepth {
		return
	}

	arc, err := ziparchive.Open(f, size)
	if err != nil {
		a.logger.Warnf("ziparchive: %v", err)
		return
	}

	zipInfo := &model.ZipInfo{}
	for _, entry := range arc.Entries {
		ext := extensionOf(entry.Name, "")
		if !isSupportedNestedExtension(ext) {
			continue
		}
		if ext == "zip" {
			a.logger.Warnf("%v: %s", ziparchive.ErrNestedArchiveIgnored, entry.Name)
			continue
		}

		nested, err := a.analyzeZipMember(arc, entry.Name, req.URL)
		if err != nil {
			a.logger.Warnf("ziparchive: analysing %s: %v", entry.Name, err)
			continue
		}
		zipInfo.Nested = append(zipInfo.Nested, *nested)
	}
	out.Zip = zipInfo
}

func (a *Analyser) analyzeZipMember(arc *ziparchive.Archive, name, parentURL string) (*model.AnalysedFile, error) {
	rc, err := arc.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "installerscan-nested-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, rc); err != nil {
		return nil, err
	}

	return a.Analyze(Request{
		Path:     tmp.Name(),
		Filename: name,
		URL:      parentURL,
		Depth:    maxNestedDepth,
	})
}

func isSupportedNestedExtension(ext string) bool {
	for _, valid := range urlarch.ValidExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// resolveArchitecture overrides out.Architecture with whatever the source
// URL names, on the theory that a publisher's own download link (e.g.
// ".../app_x64/setup.exe") is more trustworthy than a container-level
// signal that can be wrong or absent; only when the URL names nothing
// recognizable does the container-derived value (MSI template, MSIX
// manifest, PE machine type) stand.
func (a *Analyser) resolveArchitecture(rawURL string, out *model.AnalysedFile) {
	if arch, ok := urlarch.FindArchitecture(rawURL); ok {
		out.Architecture = arch
	}
}
