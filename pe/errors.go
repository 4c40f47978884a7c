// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "errors"

// Errors returned while parsing the PE headers. These map to the
// MalformedPE branch of the caller's error taxonomy.
var (
	// ErrInvalidPESize is returned when the file size is less than the
	// smallest PE file size possible.
	ErrInvalidPESize = errors.New("not a PE file, smaller than tiny PE")

	// ErrDOSMagicNotFound is returned when the file starts with neither the
	// MZ nor the ZM DOS magic.
	ErrDOSMagicNotFound = errors.New("DOS header magic not found")

	// ErrInvalidElfanewValue is returned when e_lfanew is larger than file size.
	ErrInvalidElfanewValue = errors.New("invalid e_lfanew value, probably not a PE file")

	// ErrInvalidNtHeaderOffset is returned when the NT header offset is
	// beyond the image file.
	ErrInvalidNtHeaderOffset = errors.New("invalid NT header offset, signature not found")

	// ErrImageNtSignatureNotFound is returned when the PE magic signature is
	// not found.
	ErrImageNtSignatureNotFound = errors.New("not a valid PE signature, magic not found")

	// ErrImageNtOptionalHeaderMagicNotFound is returned when the optional
	// header magic is different from PE32/PE32+.
	ErrImageNtOptionalHeaderMagicNotFound = errors.New("not a valid PE signature, optional header magic not found")

	// ErrOutsideBoundary is returned when attempting to read past the end of
	// the mapped image.
	ErrOutsideBoundary = errors.New("reading data outside file boundary")
)

// ErrMalformedResource marks a resource directory that is structurally
// inconsistent: nested deeper than maxResourceDepth, more than
// maxAllowedEntries entries at one level, an all-zero directory entry, or a
// missing child or subdirectory where ExtractEmbeddedMSI expects a data
// leaf. An RVA or byte
// range that falls outside the mapped image is reported as
// ErrOutsideBoundary, not as this error.
var ErrMalformedResource = errors.New("malformed PE resource directory")

// ErrNotFound is returned by resource lookups when the requested type, name,
// or language entry is legitimately absent. Callers treat it as an expected,
// non-exceptional outcome rather than a parse failure.
var ErrNotFound = errors.New("resource entry not found")

// ErrMalformedVersionInfo is returned by the VS_VERSION_INFO parser when the
// root record's key is not "VS_VERSION_INFO" (and, internally, when the
// fixed file info lacks its signature). Declared record lengths are not
// checked against the remaining buffer or against the sum of their
// children's lengths; a child record that cannot be read ends the walk of
// its parent without an error.
var ErrMalformedVersionInfo = errors.New("malformed VS_VERSION_INFO structure")
