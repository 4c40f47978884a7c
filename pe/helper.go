// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// TinyPESize is the smallest PE executable possible on Windows XP (x32).
const TinyPESize = 97

// fileAlignmentHardcodedValue is the value PointerToRawData is rounded down
// to when below it, per http://corkami.blogspot.com/2010/01/parce-que-la-planche-aura-brule.html.
const fileAlignmentHardcodedValue = 0x200

func (img *PEImage) fileAlignment() uint32 {
	if img.kind == FileKindPE32Plus {
		return img.optionalHeader64.FileAlignment
	}
	return img.optionalHeader32.FileAlignment
}

func (img *PEImage) sectionAlignment() uint32 {
	if img.kind == FileKindPE32Plus {
		return img.optionalHeader64.SectionAlignment
	}
	return img.optionalHeader32.SectionAlignment
}

// adjustFileAlignment reproduces the loader quirk where a PointerToRawData
// below 0x200 is rounded to zero, and otherwise rounds down to the nearest
// 0x200 boundary.
func (img *PEImage) adjustFileAlignment(va uint32) uint32 {
	fa := img.fileAlignment()
	if fa < fileAlignmentHardcodedValue {
		return va
	}
	return (va / 0x200) * 0x200
}

// adjustSectionAlignment mirrors the loader's handling of a SectionAlignment
// smaller than a page.
func (img *PEImage) adjustSectionAlignment(va uint32) uint32 {
	fa := img.fileAlignment()
	sa := img.sectionAlignment()
	if sa < 0x1000 {
		sa = fa
	}
	if sa != 0 && va%sa != 0 {
		return sa * (va / sa)
	}
	return va
}

// alignDword aligns offset to the next 32-bit boundary relative to base,
// used when walking VS_VERSION_INFO's variable-length records.
func alignDword(offset, base uint32) uint32 {
	return ((offset + base + 3) & 0xfffffffc) - (base & 0xfffffffc)
}

// uint32InSlice reports whether a is present in list, used by the resource
// walker to detect cyclic directory references.
func uint32InSlice(a uint32, list []uint32) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

func (img *PEImage) readUint32(offset uint32) (uint32, error) {
	if offset > img.size-4 {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint32(img.data[offset:]), nil
}

func (img *PEImage) readUint16(offset uint32) (uint16, error) {
	if offset > img.size-2 {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint16(img.data[offset:]), nil
}

// structUnpack decodes a little-endian struct at offset, bounds-checking
// against integer overflow before touching the mapped buffer.
func (img *PEImage) structUnpack(iface interface{}, offset, size uint32) error {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return ErrOutsideBoundary
	}
	if offset >= img.size || totalSize > img.size {
		return ErrOutsideBoundary
	}

	buf := bytes.NewReader(img.data[offset : offset+size])
	return binary.Read(buf, binary.LittleEndian, iface)
}

// readBytesAtOffset returns a byte slice borrowed from the mapped image.
// Callers that need the bytes to outlive the mapping must copy them.
func (img *PEImage) readBytesAtOffset(offset, size uint32) ([]byte, error) {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return nil, ErrOutsideBoundary
	}
	if offset >= img.size || totalSize > img.size {
		return nil, ErrOutsideBoundary
	}
	return img.data[offset : offset+size], nil
}

// DecodeUTF16String decodes a null-terminated little-endian UTF-16 byte
// slice, stopping at the first zero code unit.
func DecodeUTF16String(b []byte) (string, error) {
	n := len(b) &^ 1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			n = i
			break
		}
	}
	if n == 0 {
		return "", nil
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	s, err := decoder.Bytes(b[:n])
	if err != nil {
		return "", err
	}
	return string(s), nil
}
