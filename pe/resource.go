// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// maxAllowedEntries caps the number of directory entries read at any one
// level of the resource tree, as a defense against crafted images.
const maxAllowedEntries = 0x1000

// maxResourceDepth bounds recursion to the three levels the Windows
// resource tree is defined to have: type, name, language.
const maxResourceDepth = 3

// imageResourceDirectory is the IMAGE_RESOURCE_DIRECTORY header found at
// the root of .rsrc and at every subdirectory.
type imageResourceDirectory struct {
	Characteristics      uint32
	TimeDateStamp        uint32
	MajorVersion         uint16
	MinorVersion         uint16
	NumberOfNamedEntries uint16
	NumberOfIDEntries    uint16
}

// imageResourceDirectoryEntry is one entry following a directory header.
// OffsetToData's high bit distinguishes a subdirectory from a leaf.
type imageResourceDirectoryEntry struct {
	Name         uint32
	OffsetToData uint32
}

// imageResourceDataEntry is a leaf: the RVA and size of the actual resource
// bytes, plus the code page they're encoded in.
type imageResourceDataEntry struct {
	OffsetToData uint32
	Size         uint32
	CodePage     uint32
	Reserved     uint32
}

// ResourceDirectory is a node of the parsed resource tree.
type ResourceDirectory struct {
	Entries []ResourceDirectoryEntry
}

// ResourceDirectoryEntry is either a named or numbered child of a
// ResourceDirectory: a subdirectory (IsDir true) or a leaf (IsDir false).
type ResourceDirectoryEntry struct {
	Name  string
	ID    uint32
	IsDir bool
	Dir   ResourceDirectory
	Data  ResourceDataEntry
}

// ResourceDataEntry is a leaf's resolved location: the file offset and size
// of its raw bytes, plus the language/sub-language it was declared under.
type ResourceDataEntry struct {
	Offset  uint32
	Size    uint32
	Lang    uint32
	SubLang uint32
}

// HasNumericName reports whether the entry's Name string is empty, i.e.
// the entry is identified purely by its numeric ID.
func (e ResourceDirectoryEntry) HasNumericName() bool {
	return e.Name == ""
}

func (img *PEImage) parseResourceDataEntry(rva uint32) (imageResourceDataEntry, error) {
	var entry imageResourceDataEntry
	offset, err := img.rvaToOffset(rva)
	if err != nil {
		return entry, err
	}
	size := uint32(binary.Size(entry))
	err = img.structUnpack(&entry, offset, size)
	return entry, err
}

func (img *PEImage) parseResourceDirectoryEntry(rva uint32) (*imageResourceDirectoryEntry, error) {
	var entry imageResourceDirectoryEntry
	offset, err := img.rvaToOffset(rva)
	if err != nil {
		return nil, err
	}
	size := uint32(binary.Size(entry))
	if err := img.structUnpack(&entry, offset, size); err != nil {
		return nil, err
	}
	if entry == (imageResourceDirectoryEntry{}) {
		return nil, ErrMalformedResource
	}
	return &entry, nil
}

// doParseResourceDirectory recursively walks the resource tree starting at
// rva. baseRVA anchors name-string and data-entry offsets, which are always
// relative to the directory root rather than the current subdirectory.
// visited guards against a directory entry pointing back at an ancestor.
func (img *PEImage) doParseResourceDirectory(rva, baseRVA uint32, depth int, visited []uint32) (ResourceDirectory, error) {
	if depth >= maxResourceDepth {
		return ResourceDirectory{}, ErrMalformedResource
	}

	var dirHdr imageResourceDirectory
	offset, err := img.rvaToOffset(rva)
	if err != nil {
		return ResourceDirectory{}, err
	}
	hdrSize := uint32(binary.Size(dirHdr))
	if err := img.structUnpack(&dirHdr, offset, hdrSize); err != nil {
		return ResourceDirectory{}, err
	}

	if baseRVA == 0 {
		baseRVA = rva
	}
	if len(visited) == 0 {
		visited = append(visited, rva)
	}

	entryRVA := rva + hdrSize
	numberOfEntries := int(dirHdr.NumberOfNamedEntries + dirHdr.NumberOfIDEntries)
	if numberOfEntries > maxAllowedEntries {
		return ResourceDirectory{}, ErrMalformedResource
	}

	var entries []ResourceDirectoryEntry
	for i := 0; i < numberOfEntries; i++ {
		raw, err := img.parseResourceDirectoryEntry(entryRVA)
		if err != nil {
			break
		}

		var name string
		var id uint32
		if raw.Name&0x80000000 == 0 {
			id = raw.Name
		} else {
			nameOffset := raw.Name & 0x7fffffff
			strOffset, err := img.rvaToOffset(baseRVA + nameOffset)
			if err != nil {
				break
			}
			length, err := img.readUint16(strOffset)
			if err != nil {
				break
			}
			nameBytes, err := img.readBytesAtOffset(strOffset+2, uint32(length)*2)
			if err != nil {
				break
			}
			name, _ = DecodeUTF16String(append(nameBytes, 0, 0))
		}

		dataIsDirectory := raw.OffsetToData&0x80000000 != 0
		childOffset := raw.OffsetToData & 0x7fffffff

		if dataIsDirectory {
			childRVA := baseRVA + childOffset
			if uint32InSlice(childRVA, visited) {
				break
			}
			subDir, err := img.doParseResourceDirectory(
				childRVA, baseRVA, depth+1, append(visited, childRVA))
			if err != nil {
				break
			}
			entries = append(entries, ResourceDirectoryEntry{
				Name: name, ID: id, IsDir: true, Dir: subDir,
			})
		} else {
			dataEntry, err := img.parseResourceDataEntry(baseRVA + childOffset)
			if err != nil {
				break
			}
			dataOffset, err := img.rvaToOffset(dataEntry.OffsetToData)
			if err != nil {
				break
			}
			entries = append(entries, ResourceDirectoryEntry{
				Name: name, ID: id, IsDir: false,
				Data: ResourceDataEntry{
					Offset:  dataOffset,
					Size:    dataEntry.Size,
					Lang:    raw.Name & 0x3ff,
					SubLang: raw.Name >> 10,
				},
			})
		}

		entryRVA += uint32(binary.Size(raw))
	}

	return ResourceDirectory{Entries: entries}, nil
}

// parseResourceDirectory is the data-directory dispatch entry point for the
// resource table (IMAGE_DIRECTORY_ENTRY_RESOURCE).
func (img *PEImage) parseResourceDirectory(rva, _ uint32) error {
	dir, err := img.doParseResourceDirectory(rva, 0, 0, nil)
	if err != nil {
		return err
	}
	img.resources = dir
	img.hasResource = true
	return nil
}

// FindByID returns the first child entry of dir matching id, identified
// numerically rather than by name.
func (dir ResourceDirectory) FindByID(id uint32) (ResourceDirectoryEntry, bool) {
	for _, e := range dir.Entries {
		if !e.HasNumericName() {
			continue
		}
		if e.ID == id {
			return e, true
		}
	}
	return ResourceDirectoryEntry{}, false
}

// FindByName returns the first child entry of dir whose Name matches name,
// case-insensitively.
func (dir ResourceDirectory) FindByName(name string) (ResourceDirectoryEntry, bool) {
	for _, e := range dir.Entries {
		if e.HasNumericName() {
			continue
		}
		if equalFoldASCII(e.Name, name) {
			return e, true
		}
	}
	return ResourceDirectoryEntry{}, false
}

// First returns the first child entry of dir, used when callers only care
// about descending into whichever name/language variant exists.
func (dir ResourceDirectory) First() (ResourceDirectoryEntry, bool) {
	if len(dir.Entries) == 0 {
		return ResourceDirectoryEntry{}, false
	}
	return dir.Entries[0], true
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
