// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"
)

// Layout constants for the VS_VERSION_INFO record tree. Every record shares
// the same 6-byte {Length, ValueLength, Type} header; the differences are in
// what follows it (a key string, then optionally aligned value bytes and
// children).
const (
	vsVersionInfoString   = "VS_VERSION_INFO"
	vsFileInfoSignature   = uint32(0xFEEF04BD)
	stringFileInfoString  = "StringFileInfo"
	varFileInfoString     = "VarFileInfo"
	vsHeaderLength        = uint32(6)
	langIDStringLength    = uint32(8*2 + 1)
	maxStringKeyBytes     = 100
)

// VSHeader is the common {Length, ValueLength, Type} prefix of every
// VS_VERSION_INFO record.
type VSHeader struct {
	Length      uint16
	ValueLength uint16
	Type        uint16
}

// VSString is a single key/value pair inside a VSStringTable, e.g.
// "ProductName" -> "Example Installer".
type VSString struct {
	Header VSHeader
	Key    string
	Value  string
}

// VSStringTable is one language/code-page variant of a StringFileInfo
// block; LangID is its 8-hex-digit identifier (high word language, low word
// code page).
type VSStringTable struct {
	Header  VSHeader
	LangID  string
	Strings []VSString
}

// VSStringFileInfo wraps the StringTable children found under a
// StringFileInfo block.
type VSStringFileInfo struct {
	Header  VSHeader
	Tables  []VSStringTable
}

// VSVersionInfo is the root of one VS_VERSION_INFO tree, one of which is
// embedded per RT_VERSION resource (in practice exactly one).
type VSVersionInfo struct {
	Header      VSHeader
	Fixed       *VsFixedFileInfo
	StringFiles []VSStringFileInfo
}

// VsFixedFileInfo is VS_FIXEDFILEINFO, the fixed-layout structure embedded
// right after the VS_VERSION_INFO key string.
type VsFixedFileInfo struct {
	Signature        uint32
	StructVer        uint32
	FileVersionMS    uint32
	FileVersionLS    uint32
	ProductVersionMS uint32
	ProductVersionLS uint32
	FileFlagMask     uint32
	FileFlags        uint32
	FileOS           uint32
	FileType         uint32
	FileSubtype      uint32
	FileDateMS       uint32
	FileDateLS       uint32
}

// StringMap is the flattened, first-language-table view of a VSVersionInfo
// used by the rest of this module: key -> value, e.g. "CompanyName" ->
// "Example Corp". Per Windows convention, when a file declares more than one
// language/code-page StringTable, only the first one encountered is kept;
// later ones are ignored rather than merged.
type StringMap map[string]string

// ParseVersionInfo locates the RT_VERSION resource in the image's resource
// directory (if any) and parses its VS_VERSION_INFO tree.
func (img *PEImage) ParseVersionInfo() (*VSVersionInfo, error) {
	typeEntry, ok := img.resources.FindByID(RTVersion)
	if !ok || !typeEntry.IsDir {
		return nil, ErrNotFound
	}
	nameEntry, ok := typeEntry.Dir.First()
	if !ok || !nameEntry.IsDir {
		return nil, ErrNotFound
	}
	langEntry, ok := nameEntry.Dir.First()
	if !ok || langEntry.IsDir {
		return nil, ErrNotFound
	}

	return img.parseVSVersionInfo(langEntry.Data)
}

func (img *PEImage) readHeader(offset uint32) (VSHeader, error) {
	var h VSHeader
	b, err := img.readBytesAtOffset(offset, vsHeaderLength)
	if err != nil {
		return h, err
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return h, err
	}
	return h, nil
}

func (img *PEImage) parseVSVersionInfo(data ResourceDataEntry) (*VSVersionInfo, error) {
	base := data.Offset
	hdr, err := img.readHeader(base)
	if err != nil {
		return nil, err
	}

	keyBytes, err := img.readBytesAtOffset(base+vsHeaderLength, uint32(2*len(vsVersionInfoString)+2))
	if err != nil {
		return nil, err
	}
	key, err := DecodeUTF16String(keyBytes)
	if err != nil {
		return nil, err
	}
	if key != vsVersionInfoString {
		return nil, ErrMalformedVersionInfo
	}

	info := &VSVersionInfo{Header: hdr}

	fixedOffset := base + alignDword(vsHeaderLength+uint32(2*len(vsVersionInfoString)+2), base)
	if hdr.ValueLength > 0 {
		fixed, err := img.parseFixedFileInfo(fixedOffset)
		if err == nil {
			info.Fixed = fixed
		}
	}

	// Children (StringFileInfo/VarFileInfo) start right after the fixed
	// info block, 32-bit aligned.
	childOffset := alignDword(fixedOffset+uint32(binary.Size(VsFixedFileInfo{})), base)
	end := base + uint32(hdr.Length)

	for childOffset < end {
		childHdr, err := img.readHeader(childOffset)
		if err != nil || childHdr.Length == 0 {
			break
		}

		nameBytes, err := img.readBytesAtOffset(childOffset+vsHeaderLength, uint32(2*len(stringFileInfoString)+2))
		if err != nil {
			break
		}
		name, _ := DecodeUTF16String(nameBytes)

		if name == stringFileInfoString {
			sfi, err := img.parseStringFileInfo(childOffset, childHdr, base)
			if err == nil {
				info.StringFiles = append(info.StringFiles, *sfi)
			}
		}
		// VarFileInfo and unrecognized siblings are skipped; they carry no
		// signal for artifact metadata extraction.

		childOffset += uint32(childHdr.Length)
	}

	return info, nil
}

func (img *PEImage) parseFixedFileInfo(offset uint32) (*VsFixedFileInfo, error) {
	var f VsFixedFileInfo
	size := uint32(binary.Size(f))
	b, err := img.readBytesAtOffset(offset, size)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &f); err != nil {
		return nil, err
	}
	if f.Signature != vsFileInfoSignature {
		return nil, ErrMalformedVersionInfo
	}
	return &f, nil
}

func (img *PEImage) parseStringFileInfo(offset uint32, hdr VSHeader, base uint32) (*VSStringFileInfo, error) {
	sfi := &VSStringFileInfo{Header: hdr}

	tableOffset := alignDword(offset+vsHeaderLength+uint32(2*len(stringFileInfoString)+2), base)
	end := offset + uint32(hdr.Length)

	for tableOffset < end {
		tableHdr, err := img.readHeader(tableOffset)
		if err != nil || tableHdr.Length == 0 {
			break
		}

		langBytes, err := img.readBytesAtOffset(tableOffset+vsHeaderLength, langIDStringLength)
		if err != nil {
			break
		}
		langID, err := DecodeUTF16String(langBytes)
		if err != nil {
			break
		}

		table := VSStringTable{Header: tableHdr, LangID: langID}

		stringOffset := alignDword(tableOffset+vsHeaderLength+langIDStringLength, base)
		tableEnd := tableOffset + uint32(tableHdr.Length)
		for stringOffset < tableEnd {
			s, consumed, err := img.parseVSString(stringOffset, base)
			if err != nil || consumed == 0 {
				break
			}
			table.Strings = append(table.Strings, s)
			stringOffset += consumed
		}

		sfi.Tables = append(sfi.Tables, table)
		tableOffset += uint32(tableHdr.Length)
	}

	return sfi, nil
}

func (img *PEImage) parseVSString(offset, base uint32) (VSString, uint32, error) {
	unaligned := offset
	aligned := alignDword(unaligned, base)
	padding := aligned - unaligned

	hdr, err := img.readHeader(aligned)
	if err != nil {
		return VSString{}, 0, err
	}

	keyBytes, err := img.readBytesAtOffset(aligned+vsHeaderLength, maxStringKeyBytes)
	if err != nil {
		return VSString{}, 0, err
	}
	key, err := DecodeUTF16String(keyBytes)
	if err != nil {
		return VSString{}, 0, err
	}

	valueOffset := alignDword(uint32(2*(len(key)+1))+aligned+vsHeaderLength, base)
	valueBytes, err := img.readBytesAtOffset(valueOffset, uint32(hdr.Length))
	if err != nil {
		return VSString{}, 0, err
	}
	value, err := DecodeUTF16String(valueBytes)
	if err != nil {
		return VSString{}, 0, err
	}

	return VSString{Header: hdr, Key: key, Value: value}, uint32(hdr.Length) + padding, nil
}

// StringMap flattens v into a single key/value map by keeping only the
// first StringTable found under the first StringFileInfo block. Installers
// that declare more than one language variant have their remaining tables
// ignored rather than merged, matching how Windows Explorer's property
// sheet resolves a single "preferred" table.
func (v *VSVersionInfo) StringMap() StringMap {
	m := make(StringMap)
	if v == nil || len(v.StringFiles) == 0 || len(v.StringFiles[0].Tables) == 0 {
		return m
	}
	table := v.StringFiles[0].Tables[0]
	for _, s := range table.Strings {
		m[s.Key] = s.Value
	}
	return m
}
