// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// FirstManifestXML returns the raw bytes of the first RT_MANIFEST resource
// found in the image, descending through whatever name/language entries
// exist to the first leaf.
func (img *PEImage) FirstManifestXML() ([]byte, error) {
	typeEntry, ok := img.resources.FindByID(RTManifest)
	if !ok {
		return nil, ErrNotFound
	}
	leaf, err := firstLeaf(typeEntry)
	if err != nil {
		return nil, err
	}
	return img.readBytesAtOffset(leaf.Data.Offset, leaf.Data.Size)
}

// HasNamedRCDataEntry reports whether the RT_RCDATA sub-table contains a
// named entry equal to name, case-folded to ASCII. This is how Burn
// installers are told apart from a plain executable: WiX's bootstrapper
// stamps its embedded MSI as an RT_RCDATA resource literally named "MSI".
func (img *PEImage) HasNamedRCDataEntry(name string) bool {
	typeEntry, ok := img.resources.FindByID(RTRCData)
	if !ok || !typeEntry.IsDir {
		return false
	}
	_, found := typeEntry.Dir.FindByName(name)
	return found
}

// ExtractEmbeddedMSI navigates resource_directory -> RT_RCDATA -> (name
// entry, case-insensitive "MSI") -> first child -> data leaf, and returns
// the exact byte range the leaf declares.
func (img *PEImage) ExtractEmbeddedMSI() ([]byte, error) {
	typeEntry, ok := img.resources.FindByID(RTRCData)
	if !ok || !typeEntry.IsDir {
		return nil, ErrNotFound
	}
	nameEntry, ok := typeEntry.Dir.FindByName("msi")
	if !ok || !nameEntry.IsDir {
		return nil, ErrNotFound
	}
	langEntry, ok := nameEntry.Dir.First()
	if !ok || langEntry.IsDir {
		return nil, ErrMalformedResource
	}
	return img.readBytesAtOffset(langEntry.Data.Offset, langEntry.Data.Size)
}

// firstLeaf descends entry's sub-tables (name, then language) down to the
// first data leaf, tolerating either level being flattened away.
func firstLeaf(entry ResourceDirectoryEntry) (ResourceDirectoryEntry, error) {
	for entry.IsDir {
		next, ok := entry.Dir.First()
		if !ok {
			return ResourceDirectoryEntry{}, ErrNotFound
		}
		entry = next
	}
	return entry, nil
}
