// Package model defines the output record this module produces for each
// analyzed installer artifact.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/installerscan/installerscan/architecture"
	"github.com/installerscan/installerscan/installertype"
)

// AnalysedFile is the merged metadata record produced for one downloaded
// artifact. Architecture and Type are the only mandatory fields; everything
// else reflects what the artifact's container format actually declared.
type AnalysedFile struct {
	Filename string

	Architecture architecture.Architecture
	Type         installertype.InstallerType

	Platform         []string
	MinimumOSVersion string

	InstallerSHA256 string
	SignatureSHA256 string

	PackageFamilyName string
	ProductCode       *uuid.UUID
	ProductLanguage   string

	LastModified *time.Time

	Copyright   string
	PackageName string
	Publisher   string

	MSI  *MSIInfo
	Zip  *ZipInfo
}

// MSIInfo is the subset of an embedded or standalone MSI's summary
// information this module cares about.
type MSIInfo struct {
	Architecture    architecture.Architecture
	ProductCode     uuid.UUID
	ProductLanguage string
	IsWix           bool
}

// ZipInfo records that a Zip container was opened and, when not already at
// the recursion bound, the nested artifacts it was found to contain.
type ZipInfo struct {
	Nested []AnalysedFile
}
