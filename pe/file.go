// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
)

// Options configures PEImage parsing.
type Options struct {
	// Logger receives warnings encountered while walking the resource tree.
	// Defaults to a stderr logger; messages below warning level are dropped.
	Logger log.Logger
}

// PEImage is a memory-mapped, read-only view of a PE32/PE32+ file. It owns
// the mapping; values parsed from it (sections, resource tree) borrow from
// the same buffer and must not be used after Close.
type PEImage struct {
	dosHeader        imageDOSHeader
	fileHeader       imageFileHeader
	optionalHeader32 imageOptionalHeader32
	optionalHeader64 imageOptionalHeader64
	dataDirectory    []dataDirectory
	kind             FileKind
	sections         []section
	resources        ResourceDirectory
	hasResource      bool

	data mmap.MMap
	size uint32
	f    *os.File

	opts   *Options
	logger *log.Helper
}

// Open memory-maps name read-only and parses its PE headers.
func Open(name string, opts *Options) (*PEImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	img := newImage(data, opts)
	img.f = f
	if err := img.parse(); err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

// OpenBytes parses a PE image already resident in memory, such as a buffer
// sliced out of an embedded MSI extraction or a prior mapping.
func OpenBytes(data []byte, opts *Options) (*PEImage, error) {
	img := newImage(data, opts)
	if err := img.parse(); err != nil {
		return nil, err
	}
	return img, nil
}

func newImage(data []byte, opts *Options) *PEImage {
	if opts == nil {
		opts = &Options{}
	}

	var logger log.Logger
	if opts.Logger == nil {
		logger = log.NewStdLogger(os.Stderr)
	} else {
		logger = opts.Logger
	}

	return &PEImage{
		data:   data,
		size:   uint32(len(data)),
		opts:   opts,
		logger: log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelWarn))),
	}
}

// Close releases the memory mapping, if any.
func (img *PEImage) Close() error {
	if img.f != nil {
		_ = img.data.Unmap()
		return img.f.Close()
	}
	return nil
}

// Kind reports whether the image is PE32 or PE32+.
func (img *PEImage) Kind() FileKind { return img.kind }

// Machine returns the target machine type from the COFF file header.
func (img *PEImage) Machine() uint16 { return img.fileHeader.Machine }

// Resources returns the parsed resource directory tree, empty if the image
// carries no .rsrc section.
func (img *PEImage) Resources() ResourceDirectory { return img.resources }

// HasResource reports whether a resource directory was found and parsed.
func (img *PEImage) HasResource() bool { return img.hasResource }

// DataAt returns a byte slice borrowed from the mapped image at [offset,
// offset+size). The caller must copy it before the image is closed.
func (img *PEImage) DataAt(offset, size uint32) ([]byte, error) {
	return img.readBytesAtOffset(offset, size)
}

// parse runs the header parse pipeline: DOS header, NT header, sections,
// and finally the resource directory out of the data directory table.
func (img *PEImage) parse() error {
	if img.size < TinyPESize {
		return ErrInvalidPESize
	}

	if err := img.parseDOSHeader(); err != nil {
		return err
	}
	if err := img.parseNTHeader(); err != nil {
		return err
	}
	if err := img.parseSectionHeaders(); err != nil {
		return err
	}
	return img.parseDataDirectories()
}

// parseDataDirectories dispatches to the one directory parser this package
// implements: the resource table. Other directories (imports, exports,
// relocations, debug, TLS, ...) carry no signal for artifact classification
// and are left unparsed.
func (img *PEImage) parseDataDirectories() error {
	if int(ImageDirectoryEntryResource) >= len(img.dataDirectory) {
		return nil
	}
	entry := img.dataDirectory[ImageDirectoryEntryResource]
	if entry.VirtualAddress == 0 {
		return nil
	}

	if err := img.parseResourceDirectory(entry.VirtualAddress, entry.Size); err != nil {
		img.logger.Warnf("failed to parse resource directory: %v", err)
	}
	return nil
}
