// Package installertype classifies a downloaded artifact into one of the
// recognized installer sub-families, combining file extension, PE resource
// signals, and MSI authoring signals.
package installertype

// InstallerType is the installer family an artifact was classified as.
type InstallerType string

// Recognized installer types. Pwa and Portable are never produced by
// Classify; they exist for callers that assign them out of band.
const (
	Msi      InstallerType = "msi"
	Msix     InstallerType = "msix"
	Appx     InstallerType = "appx"
	Exe      InstallerType = "exe"
	Zip      InstallerType = "zip"
	Inno     InstallerType = "inno"
	Nullsoft InstallerType = "nullsoft"
	Wix      InstallerType = "wix"
	Burn     InstallerType = "burn"
	Pwa      InstallerType = "pwa"
	Portable InstallerType = "portable"
)

// innoComment is the exact Comments string Inno Setup stamps into every
// installer it produces.
const innoComment = "This installation was built with Inno Setup."

// nullsoftAssemblyName is the assemblyIdentity@name NSIS embeds in its
// RT_MANIFEST resource.
const nullsoftAssemblyName = "Nullsoft.NSIS.exehead"

// PESignals carries the PE-derived facts Classify needs without coupling
// this package to the pe package's resource-tree types directly.
type PESignals struct {
	// Comments is the first StringTable's "Comments" value, if any.
	Comments string
	HasComments bool

	// ManifestAssemblyName is the assemblyIdentity@name attribute of the
	// first RT_MANIFEST resource's XML, if one was found and parsed.
	ManifestAssemblyName string
	HasManifest          bool

	// HasBurnPayload reports whether the RT_RCDATA sub-table contains a
	// named entry equal to "msi" (case-folded).
	HasBurnPayload bool
}

// Classify implements the decision order: extension first, then (for .exe)
// PE content signals, in the fixed priority Inno > Nullsoft > Burn > Exe.
// ext must already be lowercased and stripped of its leading dot.
func Classify(ext string, isWix bool, pe *PESignals) (InstallerType, bool) {
	switch ext {
	case "msi":
		if isWix {
			return Wix, true
		}
		return Msi, true
	case "msix", "msixbundle":
		return Msix, true
	case "appx", "appxbundle":
		return Appx, true
	case "zip":
		return Zip, true
	case "exe":
		if pe != nil {
			if pe.HasComments && pe.Comments == innoComment {
				return Inno, true
			}
			if pe.HasManifest && pe.ManifestAssemblyName == nullsoftAssemblyName {
				return Nullsoft, true
			}
			if pe.HasBurnPayload {
				return Burn, true
			}
		}
		return Exe, true
	default:
		return "", false
	}
}
