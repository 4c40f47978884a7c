// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// imageDOSHeader represents the DOS stub every PE file begins with.
type imageDOSHeader struct {
	Magic                    uint16
	BytesOnLastPageOfFile    uint16
	PagesInFile              uint16
	Relocations              uint16
	SizeOfHeader             uint16
	MinExtraParagraphsNeeded uint16
	MaxExtraParagraphsNeeded uint16
	InitialSS                uint16
	InitialSP                uint16
	Checksum                 uint16
	InitialIP                uint16
	InitialCS                uint16
	AddressOfRelocationTable uint16
	OverlayNumber            uint16
	ReservedWords1           [4]uint16
	OEMIdentifier            uint16
	OEMInformation           uint16
	ReservedWords2           [10]uint16
	// AddressOfNewEXEHeader (e_lfanew) is a relative offset to the NT headers.
	AddressOfNewEXEHeader uint32
}

// parseDOSHeader parses and validates the DOS header stub.
func (img *PEImage) parseDOSHeader() error {
	var h imageDOSHeader
	size := uint32(binary.Size(h))
	if err := img.structUnpack(&h, 0, size); err != nil {
		return err
	}

	if h.Magic != ImageDOSSignature && h.Magic != ImageDOSZMSignature {
		return ErrDOSMagicNotFound
	}

	// e_lfanew can't be null (the signatures would overlap) and must be
	// at least 4.
	if h.AddressOfNewEXEHeader < 4 || h.AddressOfNewEXEHeader > img.size {
		return ErrInvalidElfanewValue
	}

	img.dosHeader = h
	return nil
}
