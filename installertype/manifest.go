package installertype

import "encoding/xml"

// assembly mirrors the handful of attributes this module reads out of a
// side-by-side assembly manifest (RT_MANIFEST). NSIS-produced executables
// carry a recognizable assemblyIdentity.name.
type assembly struct {
	XMLName  xml.Name `xml:"assembly"`
	Identity struct {
		Name string `xml:"name,attr"`
	} `xml:"assemblyIdentity"`
}

// AssemblyIdentityName extracts assemblyIdentity.@name from a RT_MANIFEST
// resource's raw XML bytes. An unparsable manifest is reported as absent
// rather than an error, since a malformed manifest should not abort
// classification; NSIS manifests in the wild are well-formed.
func AssemblyIdentityName(manifestXML []byte) (string, bool) {
	var a assembly
	if err := xml.Unmarshal(manifestXML, &a); err != nil {
		return "", false
	}
	if a.Identity.Name == "" {
		return "", false
	}
	return a.Identity.Name, true
}
