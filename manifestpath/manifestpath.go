// Package manifestpath derives the repository paths, branch names, and
// commit/PR text used when publishing a classified installer's metadata
// as a manifest update, mirroring the conventions those manifests'
// hosting repository expects.
package manifestpath

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// UpdateState labels why a manifest update is being proposed.
type UpdateState string

// Recognized update states.
const (
	StateNewPackage     UpdateState = "New package"
	StateNewVersion     UpdateState = "New version"
	StateUpdateMetadata UpdateState = "Update metadata"
	StateRemoveVersion  UpdateState = "Remove version"
)

// maxBranchNameLen is GitHub's 255-byte branch-name ceiling minus the
// "refs/heads/" prefix every branch ref carries.
const maxBranchNameLen = 255 - len("refs/heads/")

// PackagePath builds the manifests/<first-letter>/<Id>/.../<version> path
// convention: the package identifier's dotted segments become nested
// directories under a bucket keyed by its lowercased first character.
// version is omitted from the path when empty.
func PackagePath(identifier, version string) string {
	if identifier == "" {
		return "manifests"
	}
	first := strings.ToLower(identifier[:1])

	var b strings.Builder
	fmt.Fprintf(&b, "manifests/%s", first)
	for _, part := range strings.Split(identifier, ".") {
		b.WriteByte('/')
		b.WriteString(part)
	}
	if version != "" {
		b.WriteByte('/')
		b.WriteString(version)
	}
	return b.String()
}

// BranchName builds "<identifier>-<version>-<UUID>", truncating the
// identifier/version portion (never the UUID suffix) so the full branch
// name never exceeds maxBranchNameLen bytes.
func BranchName(identifier, version string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	branch := fmt.Sprintf("%s-%s-%s", identifier, version, id)
	if len(branch) <= maxBranchNameLen {
		return branch
	}
	keep := maxBranchNameLen - len(id)
	if keep < 0 {
		keep = 0
	}
	return branch[:keep] + id
}

// CommitTitle builds "<state>: <identifier> version <version>".
func CommitTitle(identifier, version string, state UpdateState) string {
	return fmt.Sprintf("%s: %s version %s", state, identifier, version)
}

// ToolAttribution names the tool a generated pull request credits itself
// to; the caller supplies it (rather than this package reading process
// environment directly) so callers stay in control of global state.
type ToolAttribution struct {
	Name string
	URL  string
}

// fruitEmojis are the rare-case celebratory shortcodes a pull request
// body occasionally uses instead of the default rocket.
var fruitEmojis = []string{
	"apple", "banana", "blueberries", "cherries", "grapes",
	"green_apple", "kiwi_fruit", "lemon", "mango", "melon",
	"peach", "pear", "pineapple", "strawberry", "tangerine", "watermelon",
}

// PullRequestBody renders the boilerplate body of a generated manifest
// pull request, attributing it to attribution. One time in fifty it
// picks a fruit emoji instead of the default rocket, purely cosmetic.
func PullRequestBody(attribution ToolAttribution) string {
	credit := fmt.Sprintf("[%s](%s)", attribution.Name, attribution.URL)

	emoji := "rocket"
	if rand.Intn(50) == 0 {
		emoji = fruitEmojis[rand.Intn(len(fruitEmojis))]
	}

	return fmt.Sprintf("### Pull request has been created with %s :%s:", credit, emoji)
}
