package manifestpath

import (
	"strings"
	"testing"
)

func TestPackagePathPartial(t *testing.T) {
	got := PackagePath("Package.Identifier", "")
	want := "manifests/p/Package/Identifier"
	if got != want {
		t.Errorf("PackagePath() = %q, want %q", got, want)
	}
}

func TestPackagePathFull(t *testing.T) {
	got := PackagePath("Package.Identifier", "1.2.3")
	want := "manifests/p/Package/Identifier/1.2.3"
	if got != want {
		t.Errorf("PackagePath() = %q, want %q", got, want)
	}
}

func TestBranchNameShortStaysIntact(t *testing.T) {
	branch := BranchName("Package.Identifier", "1.2.3")
	if !strings.HasPrefix(branch, "Package.Identifier-1.2.3-") {
		t.Errorf("BranchName() = %q, want Package.Identifier-1.2.3-<uuid> prefix", branch)
	}
	if len(branch) > maxBranchNameLen {
		t.Errorf("len(BranchName()) = %d, want <= %d", len(branch), maxBranchNameLen)
	}
}

func TestBranchNameTruncatesLongIdentifier(t *testing.T) {
	longIdentifier := strings.Repeat("A", 300)
	branch := BranchName(longIdentifier, "1.0.0")

	if len(branch) != maxBranchNameLen {
		t.Errorf("len(BranchName()) = %d, want exactly %d", len(branch), maxBranchNameLen)
	}
	// The UUID suffix (32 uppercase hex characters) must survive
	// truncation untouched; it's what keeps branch names unique.
	suffix := branch[len(branch)-32:]
	for _, r := range suffix {
		if !strings.ContainsRune("0123456789ABCDEF", r) {
			t.Errorf("uuid suffix %q contains non-hex rune %q", suffix, r)
			break
		}
	}
}

func TestBranchNameAtExactBoundaryStaysUntruncated(t *testing.T) {
	// Pick an identifier/version combination whose full name lands
	// exactly at maxBranchNameLen: the boundary should NOT be truncated,
	// matching "len() > MAX" (strictly greater) in the reference logic.
	const uuidLen = 32
	fixedSuffixLen := len("X") + len("-") + len("Y") + len("-") + uuidLen
	padding := maxBranchNameLen - fixedSuffixLen
	identifier := strings.Repeat("Z", padding) + "X"

	branch := BranchName(identifier, "Y")
	if len(branch) != maxBranchNameLen {
		t.Errorf("len(BranchName()) = %d, want exactly %d at the boundary", len(branch), maxBranchNameLen)
	}
	if !strings.HasPrefix(branch, identifier+"-Y-") {
		t.Errorf("BranchName() = %q, want untruncated prefix %q-Y-<uuid>", branch, identifier)
	}
}

func TestCommitTitle(t *testing.T) {
	got := CommitTitle("Package.Identifier", "1.2.3", StateNewVersion)
	want := "New version: Package.Identifier version 1.2.3"
	if got != want {
		t.Errorf("CommitTitle() = %q, want %q", got, want)
	}
}

func TestPullRequestBodyIncludesAttribution(t *testing.T) {
	body := PullRequestBody(ToolAttribution{Name: "installerscan", URL: "https://example.com/installerscan"})
	if !strings.Contains(body, "[installerscan](https://example.com/installerscan)") {
		t.Errorf("PullRequestBody() = %q, want attribution substring", body)
	}
	if !strings.HasPrefix(body, "### Pull request has been created with") {
		t.Errorf("PullRequestBody() = %q, want standard prefix", body)
	}
}
