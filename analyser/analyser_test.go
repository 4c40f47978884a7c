package analyser

import (
	"testing"

	"github.com/installerscan/installerscan/architecture"
	"github.com/installerscan/installerscan/model"
)

func TestExtensionOfFromFilename(t *testing.T) {
	got := extensionOf("setup.EXE", "")
	if got != "exe" {
		t.Errorf("extensionOf() = %q, want exe", got)
	}
}

func TestExtensionOfFallsBackToURL(t *testing.T) {
	got := extensionOf("", "https://example.com/downloads/app.msixbundle?token=1")
	if got != "msixbundle" {
		t.Errorf("extensionOf() = %q, want msixbundle", got)
	}
}

func TestExtensionOfUnknown(t *testing.T) {
	got := extensionOf("README", "https://example.com/")
	if got != "" {
		t.Errorf("extensionOf() = %q, want empty", got)
	}
}

func TestFirstPresent(t *testing.T) {
	m := map[string]string{"FileDescription": "Example App"}
	got := firstPresent(m, productKeys)
	if got != "Example App" {
		t.Errorf("firstPresent() = %q, want Example App", got)
	}
}

func TestFirstPresentPrefersEarlierKey(t *testing.T) {
	m := map[string]string{
		"LegalCopyright": "(c) Example Corp",
		"Copyright":      "should not win",
	}
	got := firstPresent(m, copyrightKeys)
	if got != "(c) Example Corp" {
		t.Errorf("firstPresent() = %q, want LegalCopyright value", got)
	}
}

func TestFirstPresentNone(t *testing.T) {
	got := firstPresent(map[string]string{}, publisherKeys)
	if got != "" {
		t.Errorf("firstPresent() = %q, want empty", got)
	}
}

func TestResolveArchitectureOverridesContainerSignal(t *testing.T) {
	a := New(nil)
	out := &model.AnalysedFile{Architecture: architecture.X86}
	a.resolveArchitecture("https://example.com/downloads/app_x64/setup.exe", out)
	if out.Architecture != architecture.X64 {
		t.Errorf("Architecture = %q, want x64 (URL must override the PE machine type)", out.Architecture)
	}
}

func TestResolveArchitectureFallsBackWhenURLNamesNone(t *testing.T) {
	a := New(nil)
	out := &model.AnalysedFile{Architecture: architecture.X86}
	a.resolveArchitecture("https://example.com/downloads/setup.exe", out)
	if out.Architecture != architecture.X86 {
		t.Errorf("Architecture = %q, want x86 (container value preserved when URL has no token)", out.Architecture)
	}
}

func TestIsSupportedNestedExtension(t *testing.T) {
	if !isSupportedNestedExtension("msi") {
		t.Errorf("isSupportedNestedExtension(msi) = false, want true")
	}
	if isSupportedNestedExtension("dmg") {
		t.Errorf("isSupportedNestedExtension(dmg) = true, want false")
	}
}
