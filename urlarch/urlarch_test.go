package urlarch

import (
	"fmt"
	"testing"

	"github.com/installerscan/installerscan/architecture"
)

func TestFindArchitectureAtEnd(t *testing.T) {
	tests := []struct {
		token string
		want  architecture.Architecture
	}{
		{"x86_64", architecture.X64},
		{"x64", architecture.X64},
		{"64-bit", architecture.X64},
		{"64bit", architecture.X64},
		{"win64", architecture.X64},
		{"winx64", architecture.X64},
		{"ia64", architecture.X64},
		{"amd64", architecture.X64},
		{"x86", architecture.X86},
		{"x32", architecture.X86},
		{"i386", architecture.X86},
		{"i686", architecture.X86},
		{"arm64", architecture.Arm64},
		{"aarch64", architecture.Arm64},
		{"arm", architecture.Arm},
		{"armv7", architecture.Arm},
		{"aarch", architecture.Arm},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			url := fmt.Sprintf("https://www.example.com/file%s.exe", tt.token)
			got, ok := FindArchitecture(url)
			if !ok || got != tt.want {
				t.Errorf("FindArchitecture(%q) = %q, %v; want %q, true", url, got, ok, tt.want)
			}
		})
	}
}

func TestFindArchitectureDelimited(t *testing.T) {
	delimiters := []string{",", "/", "\\", ".", "_", "-"}
	tokens := []struct {
		token string
		want  architecture.Architecture
	}{
		{"x64", architecture.X64},
		{"x86", architecture.X86},
		{"arm64", architecture.Arm64},
		{"arm", architecture.Arm},
	}

	for _, tok := range tokens {
		for _, d := range delimiters {
			name := fmt.Sprintf("%s_delim_%s", tok.token, d)
			t.Run(name, func(t *testing.T) {
				url := fmt.Sprintf("https://www.example.com/file%s%s%sapp.exe", d, tok.token, d)
				got, ok := FindArchitecture(url)
				if !ok || got != tok.want {
					t.Errorf("FindArchitecture(%q) = %q, %v; want %q, true", url, got, ok, tok.want)
				}
			})
		}
	}
}

func TestFindArchitectureX64BeforeX86(t *testing.T) {
	url := "https://www.example.com/file_x86_64.exe"
	got, ok := FindArchitecture(url)
	if !ok || got != architecture.X64 {
		t.Errorf("FindArchitecture(%q) = %q, %v; want x64, true", url, got, ok)
	}
}

func TestFindArchitectureNone(t *testing.T) {
	got, ok := FindArchitecture("https://www.example.com/file.exe")
	if ok {
		t.Errorf("FindArchitecture() = %q, true; want not found", got)
	}
}

func TestFindArchitectureExtensionFallback(t *testing.T) {
	url := "https://www.example.com/downloads/appx64.exe"
	got, ok := FindArchitecture(url)
	if !ok || got != architecture.X64 {
		t.Errorf("FindArchitecture(%q) = %q, %v; want x64, true", url, got, ok)
	}
}

func TestFindScope(t *testing.T) {
	tests := []struct {
		url  string
		want Scope
		ok   bool
	}{
		{"https://example.com/app-user.exe", ScopeUser, true},
		{"https://example.com/app-machine.exe", ScopeMachine, true},
		{"https://example.com/app.exe", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := FindScope(tt.url)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FindScope(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		})
	}
}
