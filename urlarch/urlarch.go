// Package urlarch infers CPU architecture and install scope from a download
// URL, for installers whose PE headers, manifests, or MSI tables don't
// state it directly (e.g. a bare .zip).
package urlarch

import (
	"strings"

	"github.com/installerscan/installerscan/architecture"
)

// ValidExtensions are the file extensions this module knows how to fetch
// and classify.
var ValidExtensions = [...]string{
	"msix", "msi", "appx", "exe", "zip", "msixbundle", "appxbundle",
}

// delimiters are the characters that must surround an architecture token
// for it to be trusted; without them "x86" would match inside an unrelated
// word like "x8600".
var delimiters = [...]rune{',', '/', '\\', '.', '_', '-'}

type archToken struct {
	token string
	arch  architecture.Architecture
}

// architectureTokens is checked in order and the first delimited match
// wins, so e.g. "x86_64" is matched before "x86" and "arm64" before "arm".
// "armv7" is listed after "arm"; both map to Arm.
var architectureTokens = [...]archToken{
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
	{"32-bit", architecture.X86},
	{"32bit", architecture.X86},
	{"win32", architecture.X86},
	{"winx86", architecture.X86},
	{"ia32", architecture.X86},
	{"i386", architecture.X86},
	{"i486", architecture.X86},
	{"i586", architecture.X86},
	{"i686", architecture.X86},
	{"386", architecture.X86},
	{"486", architecture.X86},
	{"586", architecture.X86},
	{"686", architecture.X86},
	{"arm64", architecture.Arm64},
	{"aarch64", architecture.Arm64},
	{"arm", architecture.Arm},
	{"armv7", architecture.Arm},
	{"aarch", architecture.Arm},
	{"neutral", architecture.Neutral},
}

func isDelimiter(r rune) bool {
	for _, d := range delimiters {
		if r == d {
			return true
		}
	}
	return false
}

// lastIndexRunes returns the rune index of the last occurrence of sub in s,
// or -1. Matching is done over runes rather than bytes so that the
// before/after delimiter check below lines up with real character
// boundaries even when the URL contains multi-byte characters.
func lastIndexRunes(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}
	for start := len(s) - len(sub); start >= 0; start-- {
		match := true
		for i, r := range sub {
			if s[start+i] != r {
				match = false
				break
			}
		}
		if match {
			return start
		}
	}
	return -1
}

// FindArchitecture searches url for a recognizable architecture token.
// It first looks for {delimiter}{token}{delimiter}, preferring the
// rightmost occurrence of each token (closest to the filename); failing
// that, it falls back to {token}.{extension} for a known extension, since
// some hosts omit any delimiter before the file's extension.
func FindArchitecture(url string) (architecture.Architecture, bool) {
	lower := []rune(strings.ToLower(url))

	for _, tok := range architectureTokens {
		tokRunes := []rune(tok.token)
		idx := lastIndexRunes(lower, tokRunes)
		if idx < 0 {
			continue
		}

		var before, after rune
		if idx > 0 {
			before = lower[idx-1]
		}
		afterIdx := idx + len(tokRunes)
		if afterIdx < len(lower) {
			after = lower[afterIdx]
		}

		if isDelimiter(before) && isDelimiter(after) {
			return tok.arch, true
		}
	}

	lowerStr := string(lower)
	for _, ext := range ValidExtensions {
		if !strings.Contains(lowerStr, ext) {
			continue
		}
		for _, tok := range architectureTokens {
			if strings.Contains(lowerStr, tok.token+"."+ext) {
				return tok.arch, true
			}
		}
	}

	return "", false
}

// Scope is the per-machine vs per-user install scope a URL hints at.
type Scope string

// Recognized scopes.
const (
	ScopeUser    Scope = "user"
	ScopeMachine Scope = "machine"
)

// FindScope reports whether url (any part of it, lowercased) contains a
// "user" or "machine" substring, checking "user" first, used to default an
// installer's declared install scope when the artifact itself doesn't state
// one. No delimiter check is applied.
func FindScope(url string) (Scope, bool) {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "user"):
		return ScopeUser, true
	case strings.Contains(lower, "machine"):
		return ScopeMachine, true
	default:
		return "", false
	}
}
