// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// imageFileHeader contains the basic physical layout and properties of the
// file, following the PE00 signature.
type imageFileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// dataDirectory is one of the 16 IMAGE_DATA_DIRECTORY entries following the
// optional header; VirtualAddress/Size describe a table or string elsewhere
// in the image.
type dataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// imageOptionalHeader32 is the PE32 optional header. This package only reads
// SectionAlignment, FileAlignment and DataDirectory from it; the rest exist
// to keep structUnpack's size computation accurate against the real on-disk
// layout.
type imageOptionalHeader32 struct {
	Magic                       uint16
	MajorLinkerVersion          uint8
	MinorLinkerVersion          uint8
	SizeOfCode                  uint32
	SizeOfInitializedData       uint32
	SizeOfUninitializedData     uint32
	AddressOfEntryPoint         uint32
	BaseOfCode                  uint32
	BaseOfData                  uint32
	ImageBase                   uint32
	SectionAlignment            uint32
	FileAlignment                uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Win32VersionValue           uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint32
	SizeOfStackCommit           uint32
	SizeOfHeapReserve           uint32
	SizeOfHeapCommit            uint32
	LoaderFlags                 uint32
	NumberOfRvaAndSizes          uint32
	DataDirectory               [16]dataDirectory
}

// imageOptionalHeader64 is the PE32+ optional header; identical to its PE32
// counterpart save for ImageBase and the three stack/heap sizes widening to
// 64 bits and BaseOfData being dropped.
type imageOptionalHeader64 struct {
	Magic                       uint16
	MajorLinkerVersion          uint8
	MinorLinkerVersion          uint8
	SizeOfCode                  uint32
	SizeOfInitializedData       uint32
	SizeOfUninitializedData     uint32
	AddressOfEntryPoint         uint32
	BaseOfCode                  uint32
	ImageBase                   uint64
	SectionAlignment            uint32
	FileAlignment                uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Win32VersionValue           uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint64
	SizeOfStackCommit           uint64
	SizeOfHeapReserve           uint64
	SizeOfHeapCommit            uint64
	LoaderFlags                 uint32
	NumberOfRvaAndSizes          uint32
	DataDirectory               [16]dataDirectory
}

// parseNTHeader parses IMAGE_NT_HEADERS, whose offset is e_lfanew from the
// DOS header, and the optional header that immediately follows the COFF
// file header, branching on its magic to decide PE32 vs PE32+.
func (img *PEImage) parseNTHeader() error {
	ntHeaderOffset := img.dosHeader.AddressOfNewEXEHeader
	signature, err := img.readUint32(ntHeaderOffset)
	if err != nil {
		return ErrInvalidNtHeaderOffset
	}
	if signature != ImageNTSignature {
		return ErrImageNtSignatureNotFound
	}

	fileHeaderSize := uint32(binary.Size(imageFileHeader{}))
	fileHeaderOffset := ntHeaderOffset + 4
	if err := img.structUnpack(&img.fileHeader, fileHeaderOffset, fileHeaderSize); err != nil {
		return err
	}

	optHeaderOffset := ntHeaderOffset + 4 + fileHeaderSize
	magic, err := img.readUint16(optHeaderOffset)
	if err != nil {
		return err
	}

	switch magic {
	case ImageNtOptionalHeader64Magic:
		size := uint32(binary.Size(img.optionalHeader64))
		if err := img.structUnpack(&img.optionalHeader64, optHeaderOffset, size); err != nil {
			return err
		}
		img.kind = FileKindPE32Plus
		img.dataDirectory = img.optionalHeader64.DataDirectory[:]
	case ImageNtOptionalHeader32Magic:
		size := uint32(binary.Size(img.optionalHeader32))
		if err := img.structUnpack(&img.optionalHeader32, optHeaderOffset, size); err != nil {
			return err
		}
		img.kind = FileKindPE32
		img.dataDirectory = img.optionalHeader32.DataDirectory[:]
	default:
		return ErrImageNtOptionalHeaderMagicNotFound
	}

	return nil
}
