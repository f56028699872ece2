package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ledgerRepoPattern matches GitHub repository links inside the ledger.
var ledgerRepoPattern = regexp.MustCompile(`(?i)https?://github\.com/([^/\s]+)/([^)\s]+)`)

// Ledger is the set of normalized "owner/repo" keys already published in
// the historical summary document.
type Ledger struct {
	keys map[string]struct{}
}

// ParseLedger extracts every GitHub repository link from content.
func ParseLedger(content string) *Ledger {
	l := &Ledger{keys: make(map[string]struct{})}
	for _, m := range ledgerRepoPattern.FindAllStringSubmatch(content, -1) {
		if key, ok := normalizeKey(m[1], m[2]); ok {
			l.keys[key] = struct{}{}
		}
	}
	return l
}

// LoadLedger reads the ledger at path. A missing file yields an empty ledger
// and no error; any other read failure yields an empty ledger together with
// the error so callers can report it and carry on.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		empty := ParseLedger("")
		if errors.Is(err, fs.ErrNotExist) {
			return empty, nil
		}
		return empty, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return ParseLedger(string(data)), nil
}

// Len returns the number of distinct repositories in the ledger.
func (l *Ledger) Len() int {
	return len(l.keys)
}

// Contains reports whether key ("owner/repo", any case) is in the ledger.
func (l *Ledger) Contains(key string) bool {
	_, ok := l.keys[strings.ToLower(key)]
	return ok
}

// Keys returns the ledger keys in sorted order.
func (l *Ledger) Keys() []string {
	keys := make([]string, 0, len(l.keys))
	for k := range l.keys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Excludes reports whether repo was already published, matching either its
// full name or its web URL.
func (l *Ledger) Excludes(repo *Repository) bool {
	if l.Contains(repo.FullName) {
		return true
	}
	for _, u := range []string{repo.HTMLURL, repo.URL} {
		if key, ok := RepoKey(u); ok && l.Contains(key) {
			return true
		}
	}
	return false
}

// Filter returns the repositories that are not in the ledger, preserving
// input order. An empty ledger returns repos unchanged.
func (l *Ledger) Filter(repos []Repository) []Repository {
	if l.Len() == 0 {
		return repos
	}
	filtered := make([]Repository, 0, len(repos))
	for i := range repos {
		if l.Excludes(&repos[i]) {
			continue
		}
		filtered = append(filtered, repos[i])
	}
	return filtered
}

// RepoKey resolves a GitHub URL to its normalized "owner/repo" key.
func RepoKey(rawURL string) (string, bool) {
	m := ledgerRepoPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return normalizeKey(m[1], m[2])
}

func normalizeKey(owner, repo string) (string, bool) {
	owner = strings.ToLower(strings.TrimSpace(owner))
	repo = strings.TrimRight(strings.ToLower(strings.TrimSpace(repo)), "/")
	repo = strings.TrimSuffix(repo, ".git")
	if owner == "" || repo == "" {
		return "", false
	}
	return owner + "/" + repo, true
}
