// Package msi reads the handful of Windows Installer SummaryInformation
// properties this module cares about out of an MSI's OLE compound
// document, without needing the full Tables/Strings database.
package msi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sassoftware/relic/v8/lib/comdoc"

	"github.com/installerscan/installerscan/architecture"
)

// summaryInformationStream is the well-known OLE storage entry name MSI
// uses for its SummaryInformation property set.
const summaryInformationStream = "\x05SummaryInformation"

// Summary Information property set IDs this module reads (MS-OLEPS /
// [MS-CFB] "Summary Information Property Set"). Only the ones the spec's
// Data Model actually surfaces are named.
const (
	pidsiTemplate  = 7
	pidsiRevNumber = 9
	pidsiAppName   = 18
)

var (
	// ErrNotMSI means the file isn't a valid OLE compound document at all.
	ErrNotMSI = errors.New("msi: not an OLE compound document")
	// ErrNoSummaryInformation means the document parsed but had no
	// SummaryInformation stream.
	ErrNoSummaryInformation = errors.New("msi: missing SummaryInformation stream")
)

// Info is the subset of MSI metadata the rest of this module consumes.
type Info struct {
	Architecture    architecture.Architecture
	ProductCode     uuid.UUID
	ProductLanguage string
	IsWix           bool
}

// templateArchitectures maps the platform token of PIDSI_TEMPLATE to an
// Architecture. Windows Installer only ever populates x86/Intel, x64,
// Intel64 (IA64), and Arm64 here.
var templateArchitectures = map[string]architecture.Architecture{
	"x86":     architecture.X86,
	"intel":   architecture.X86,
	"x64":     architecture.X64,
	"amd64":   architecture.X64,
	"arm64":   architecture.Arm64,
	"intel64": architecture.X64,
}

// wixAppNames are PIDSI_APPNAME values the WiX toolset's linker writes;
// their presence is the authoritative signal a .msi was built with WiX.
var wixAppNames = []string{
	"windows installer xml",
	"wix toolset",
}

// Read opens r as an OLE compound document and extracts Info from its
// SummaryInformation stream.
func Read(r io.ReaderAt) (*Info, error) {
	doc, err := comdoc.ReadFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMSI, err)
	}
	defer doc.Close()

	entries, err := doc.ListDir(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMSI, err)
	}

	var sumInfo *comdoc.DirEntry
	for _, e := range entries {
		if e.Type == comdoc.DirStream && e.Name() == summaryInformationStream {
			sumInfo = e
			break
		}
	}
	if sumInfo == nil {
		return nil, ErrNoSummaryInformation
	}

	stream, err := doc.ReadStream(sumInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMSI, err)
	}
	raw, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMSI, err)
	}

	props, err := parsePropertySet(raw)
	if err != nil {
		return nil, err
	}

	info := &Info{}
	if tmpl, ok := props[pidsiTemplate].(string); ok {
		info.Architecture, info.ProductLanguage = parseTemplate(tmpl)
	}
	if rev, ok := props[pidsiRevNumber].(string); ok {
		if code, ok := parseRevisionNumber(rev); ok {
			info.ProductCode = code
		}
	}
	if app, ok := props[pidsiAppName].(string); ok {
		info.IsWix = isWixAppName(app)
	}

	return info, nil
}

// parseTemplate splits a PIDSI_TEMPLATE value ("x64;1033" or "Intel,1033")
// into architecture and the raw language token.
func parseTemplate(tmpl string) (architecture.Architecture, string) {
	tmpl = strings.TrimSpace(tmpl)
	var platform, lang string
	if idx := strings.IndexAny(tmpl, ";,"); idx >= 0 {
		platform, lang = tmpl[:idx], tmpl[idx+1:]
	} else {
		platform = tmpl
	}
	arch := templateArchitectures[strings.ToLower(strings.TrimSpace(platform))]
	return arch, strings.TrimSpace(lang)
}

// parseRevisionNumber extracts the brace-delimited ProductCode GUID from
// a PIDSI_REVNUMBER value of the form "{GUID}version".
func parseRevisionNumber(rev string) (uuid.UUID, bool) {
	start := strings.IndexByte(rev, '{')
	end := strings.IndexByte(rev, '}')
	if start < 0 || end < 0 || end <= start {
		return uuid.UUID{}, false
	}
	code, err := uuid.Parse(rev[start+1 : end])
	if err != nil {
		return uuid.UUID{}, false
	}
	return code, true
}

func isWixAppName(appName string) bool {
	lower := strings.ToLower(appName)
	for _, want := range wixAppNames {
		if strings.Contains(lower, want) {
			return true
		}
	}
	return false
}

// propertySetMagic is the byte-order mark every MS-OLEPS property set
// stream begins with.
const propertySetMagic = 0xFFFE

// parsePropertySet parses the first (and for SummaryInformation, only)
// property set in a PropertySetStream per MS-OLEPS section 2.21, keeping
// only VT_LPSTR/VT_LPWSTR property values as Go strings; every other
// variant type is skipped since this module has no use for it.
func parsePropertySet(raw []byte) (map[uint32]interface{}, error) {
	if len(raw) < 28 {
		return nil, ErrNotMSI
	}
	byteOrder := le16(raw, 0)
	if byteOrder != propertySetMagic {
		return nil, ErrNotMSI
	}

	numSets := le32(raw, 24)
	if numSets == 0 {
		return nil, ErrNotMSI
	}

	// FMTID0 occupies 16 bytes at offset 28; the set's own offset follows.
	const firstOffsetField = 28 + 16
	if len(raw) < firstOffsetField+4 {
		return nil, ErrNotMSI
	}
	setOffset := le32(raw, firstOffsetField)
	if int(setOffset) >= len(raw) {
		return nil, ErrNotMSI
	}

	section := raw[setOffset:]
	if len(section) < 8 {
		return nil, ErrNotMSI
	}
	numProps := le32(section, 4)

	props := make(map[uint32]interface{}, numProps)
	const propertyPairSize = 8
	for i := uint32(0); i < numProps; i++ {
		pairOffset := 8 + i*propertyPairSize
		if int(pairOffset+propertyPairSize) > len(section) {
			break
		}
		propID := le32(section, int(pairOffset))
		propOffset := le32(section, int(pairOffset+4))
		if int(propOffset) >= len(section) {
			continue
		}
		value, ok := parsePropertyValue(section[propOffset:])
		if ok {
			props[propID] = value
		}
	}
	return props, nil
}

// Variant type tags this module understands; everything else is ignored.
const (
	vtLPSTR  = 30
	vtLPWSTR = 31
)

func parsePropertyValue(b []byte) (interface{}, bool) {
	if len(b) < 4 {
		return nil, false
	}
	vtype := le32(b, 0)
	b = b[4:]
	switch vtype {
	case vtLPSTR:
		if len(b) < 4 {
			return nil, false
		}
		length := le32(b, 0)
		b = b[4:]
		if uint32(len(b)) < length {
			return nil, false
		}
		return strings.TrimRight(string(b[:length]), "\x00"), true
	case vtLPWSTR:
		if len(b) < 4 {
			return nil, false
		}
		charCount := le32(b, 0)
		b = b[4:]
		byteLen := int(charCount) * 2
		if len(b) < byteLen {
			return nil, false
		}
		return decodeUTF16LE(b[:byteLen]), true
	default:
		return nil, false
	}
}

func decodeUTF16LE(b []byte) string {
	var buf bytes.Buffer
	for i := 0; i+1 < len(b); i += 2 {
		r := uint16(b[i]) | uint16(b[i+1])<<8
		if r == 0 {
			break
		}
		buf.WriteRune(rune(r))
	}
	return buf.String()
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}
