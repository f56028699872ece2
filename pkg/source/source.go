package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoRepos is returned when an input document carries no repositories.
var ErrNoRepos = errors.New("no repos found in input")

// Domain names a coarse technology category used to weight scoring.
type Domain string

const (
	DomainAI       Domain = "ai"
	DomainWeb3     Domain = "web3"
	DomainFrontend Domain = "frontend"
	DomainTools    Domain = "tools"
	DomainInfra    Domain = "infra"
	DomainOther    Domain = "other"

	// DomainAll is the classifier hint meaning "infer from signals".
	DomainAll Domain = "all"
)

// Repository is a candidate repository as produced by the upstream fetcher.
// Domain and ActivityScore are derived by the pipeline and stay unset until
// their stage runs.
type Repository struct {
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	URL         string   `json:"url"`
	HTMLURL     string   `json:"html_url,omitempty"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	OpenIssues  int      `json:"open_issues"`
	Language    string   `json:"language"`
	License     string   `json:"license"`
	Topics      []string `json:"topics"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	PushedAt    string   `json:"pushed_at,omitempty"`

	Domain        Domain   `json:"domain,omitempty"`
	ActivityScore *float64 `json:"activity_score,omitempty"`
}

// Link returns the best known web URL for the repository.
func (r *Repository) Link() string {
	if r.URL != "" {
		return r.URL
	}
	return r.HTMLURL
}

// DisplayName returns the short name, falling back to the full name.
func (r *Repository) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.FullName
}

// Activity returns the activity score, or 0 when it has not been computed.
func (r *Repository) Activity() float64 {
	if r.ActivityScore == nil {
		return 0
	}
	return *r.ActivityScore
}

// normalize fills identity fields from each other and clamps metrics that
// must never be negative.
func (r *Repository) normalize() {
	if r.FullName == "" && r.Owner != "" && r.Name != "" {
		r.FullName = r.Owner + "/" + r.Name
	}
	if owner, name, ok := strings.Cut(r.FullName, "/"); ok {
		if r.Owner == "" {
			r.Owner = owner
		}
		if r.Name == "" {
			r.Name = name
		}
	}
	r.Stars = max(r.Stars, 0)
	r.Forks = max(r.Forks, 0)
	r.OpenIssues = max(r.OpenIssues, 0)
}

// Document is the input envelope handed over by the fetcher.
type Document struct {
	Meta  map[string]any `json:"meta"`
	Repos []Repository   `json:"repos"`
}

// Decode parses an input document. A document without repositories is an
// error since there is nothing to score.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if len(doc.Repos) == 0 {
		return nil, ErrNoRepos
	}
	if doc.Meta == nil {
		doc.Meta = map[string]any{}
	}
	for i := range doc.Repos {
		doc.Repos[i].normalize()
	}
	return &doc, nil
}

// Load reads and parses an input document from disk.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}
