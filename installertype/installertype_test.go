package installertype

import "testing"

func TestClassifyByExtension(t *testing.T) {
	tests := []struct {
		ext   string
		isWix bool
		want  InstallerType
	}{
		{"msi", false, Msi},
		{"msi", true, Wix},
		{"msix", false, Msix},
		{"msixbundle", false, Msix},
		{"appx", false, Appx},
		{"appxbundle", false, Appx},
		{"zip", false, Zip},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := Classify(tt.ext, tt.isWix, nil)
			if !ok || got != tt.want {
				t.Errorf("Classify(%q, %v, nil) = %q, %v; want %q, true", tt.ext, tt.isWix, got, ok, tt.want)
			}
		})
	}
}

func TestClassifyInno(t *testing.T) {
	sig := &PESignals{Comments: innoComment, HasComments: true}
	got, ok := Classify("exe", false, sig)
	if !ok || got != Inno {
		t.Errorf("Classify(exe, inno comments) = %q, %v; want inno, true", got, ok)
	}
}

func TestClassifyNullsoft(t *testing.T) {
	sig := &PESignals{ManifestAssemblyName: nullsoftAssemblyName, HasManifest: true}
	got, ok := Classify("exe", false, sig)
	if !ok || got != Nullsoft {
		t.Errorf("Classify(exe, nsis manifest) = %q, %v; want nullsoft, true", got, ok)
	}
}

func TestClassifyBurn(t *testing.T) {
	sig := &PESignals{HasBurnPayload: true}
	got, ok := Classify("exe", false, sig)
	if !ok || got != Burn {
		t.Errorf("Classify(exe, burn payload) = %q, %v; want burn, true", got, ok)
	}
}

func TestClassifyPlainExe(t *testing.T) {
	got, ok := Classify("exe", false, &PESignals{})
	if !ok || got != Exe {
		t.Errorf("Classify(exe, no signals) = %q, %v; want exe, true", got, ok)
	}
}

func TestClassifyInnoTakesPriorityOverBurn(t *testing.T) {
	sig := &PESignals{
		Comments: innoComment, HasComments: true,
		HasBurnPayload: true,
	}
	got, ok := Classify("exe", false, sig)
	if !ok || got != Inno {
		t.Errorf("Classify(exe, inno+burn) = %q, %v; want inno (priority order), true", got, ok)
	}
}

func TestClassifyUnsupportedExtension(t *testing.T) {
	_, ok := Classify("dmg", false, nil)
	if ok {
		t.Errorf("Classify(dmg, ...) reported ok; want unsupported extension")
	}
}

func TestAssemblyIdentityName(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<assembly xmlns="urn:schemas-microsoft-com:asm.v1" manifestVersion="1.0">
  <assemblyIdentity version="1.0.0.0" processorArchitecture="x86" name="Nullsoft.NSIS.exehead" type="win32"/>
</assembly>`)

	name, ok := AssemblyIdentityName(xmlDoc)
	if !ok || name != nullsoftAssemblyName {
		t.Errorf("AssemblyIdentityName() = %q, %v; want %q, true", name, ok, nullsoftAssemblyName)
	}
}

func TestAssemblyIdentityNameMalformed(t *testing.T) {
	_, ok := AssemblyIdentityName([]byte("not xml"))
	if ok {
		t.Errorf("AssemblyIdentityName(malformed) reported ok; want false")
	}
}
