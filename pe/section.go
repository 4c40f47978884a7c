// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"sort"
	"strings"
)

// imageSectionHeader is one row of the section table, 40 bytes on disk with
// no padding.
type imageSectionHeader struct {
	Name                 [8]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// section pairs a section header with its stringified name, computed once
// at parse time.
type section struct {
	header imageSectionHeader
	name   string
}

func (s *section) String() string {
	return strings.Replace(string(s.header.Name[:]), "\x00", "", -1)
}

// parseSectionHeaders reads the section table, which immediately follows
// the optional header, and sorts it by VirtualAddress so RVA lookups can
// assume ascending order.
func (img *PEImage) parseSectionHeaders() error {
	optionalHeaderOffset := img.dosHeader.AddressOfNewEXEHeader + 4 +
		uint32(binary.Size(imageFileHeader{}))
	offset := optionalHeaderOffset + uint32(img.fileHeader.SizeOfOptionalHeader)

	var hdr imageSectionHeader
	hdrSize := uint32(binary.Size(hdr))

	for i := uint16(0); i < img.fileHeader.NumberOfSections; i++ {
		if err := img.structUnpack(&hdr, offset, hdrSize); err != nil {
			return err
		}
		sec := section{header: hdr}
		sec.name = sec.String()
		img.sections = append(img.sections, sec)
		offset += hdrSize
	}

	sort.Slice(img.sections, func(i, j int) bool {
		return img.sections[i].header.VirtualAddress < img.sections[j].header.VirtualAddress
	})

	return nil
}

// sectionContaining returns the section whose virtual address range covers
// rva, or nil if no section claims it.
func (img *PEImage) sectionContaining(rva uint32) *section {
	for i := range img.sections {
		sec := &img.sections[i]
		size := sec.header.VirtualSize
		if size == 0 {
			size = sec.header.SizeOfRawData
		}
		if rva >= sec.header.VirtualAddress && rva < sec.header.VirtualAddress+size {
			return sec
		}
	}
	return nil
}

// rvaToOffset translates a relative virtual address into a file offset by
// locating the section that contains it. This is the basis for every
// resource-tree and version-info read, since both are addressed by RVA.
func (img *PEImage) rvaToOffset(rva uint32) (uint32, error) {
	sec := img.sectionContaining(rva)
	if sec == nil {
		return 0, ErrOutsideBoundary
	}
	offset := rva - sec.header.VirtualAddress + sec.header.PointerToRawData
	if offset > img.size {
		return 0, ErrOutsideBoundary
	}
	return offset, nil
}
