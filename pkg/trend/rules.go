package trend

import "github.com/elonfeng/reporadar/pkg/source"

// DomainKeywords is one entry of the ordered domain catalog.
type DomainKeywords struct {
	Domain   source.Domain
	Keywords []string
}

// LanguageDomain maps a primary language to a fallback domain.
type LanguageDomain struct {
	Language string
	Domain   source.Domain
}

// Rules holds every keyword and weight table used by the scorers. Slices are
// ordered: first-match-wins lookups iterate them front to back.
type Rules struct {
	Catalog         []DomainKeywords
	Languages       []LanguageDomain
	DomainWeights   map[source.Domain]int
	PainKeywords    []string
	DisruptKeywords []string
	PositiveTopics  []string
	OpenLicenses    []string
	NegativeNames   []string
	SpamKeywords    []string
}

// DefaultRules returns the stock scoring tables.
func DefaultRules() Rules {
	return Rules{
		Catalog: []DomainKeywords{
			{Domain: source.DomainAI, Keywords: []string{
				"llm", "gpt", "agent", "langchain", "openai", "anthropic",
				"transformer", "neural", "machine-learning", "deep-learning",
				"chatbot", "embedding", "rag", "fine-tuning", "inference",
			}},
			{Domain: source.DomainWeb3, Keywords: []string{
				"blockchain", "ethereum", "solidity", "web3", "defi", "nft",
				"smart-contract", "crypto", "solana", "zk", "zero-knowledge",
			}},
			{Domain: source.DomainFrontend, Keywords: []string{
				"react", "vue", "svelte", "nextjs", "nuxt", "tailwind",
				"typescript", "javascript", "css", "ui-components", "design-system",
			}},
			{Domain: source.DomainTools, Keywords: []string{
				"cli", "developer-tools", "productivity", "automation",
				"devtools", "utility", "terminal", "shell", "dotfiles",
			}},
			{Domain: source.DomainInfra, Keywords: []string{
				"kubernetes", "docker", "terraform", "devops", "ci-cd",
				"monitoring", "observability", "cloud", "serverless",
			}},
		},
		Languages: []LanguageDomain{
			{Language: "Python", Domain: source.DomainAI},
			{Language: "Jupyter Notebook", Domain: source.DomainAI},
			{Language: "Solidity", Domain: source.DomainWeb3},
			{Language: "Rust", Domain: source.DomainWeb3},
			{Language: "TypeScript", Domain: source.DomainFrontend},
			{Language: "JavaScript", Domain: source.DomainFrontend},
			{Language: "Go", Domain: source.DomainTools},
			{Language: "Shell", Domain: source.DomainInfra},
		},
		DomainWeights: map[source.Domain]int{
			source.DomainAI:       5,
			source.DomainWeb3:     4,
			source.DomainFrontend: 4,
			source.DomainTools:    4,
			source.DomainInfra:    3,
			source.DomainOther:    1,
		},
		PainKeywords: []string{"replace", "alternative", "faster", "simpler", "better", "solve"},
		DisruptKeywords: []string{
			"ai", "llm", "gpt", "agent", "autonomous", "zero-knowledge",
			"revolutionary", "next-gen", "breakthrough",
		},
		PositiveTopics: []string{
			"hacktoberfest", "good-first-issue", "documentation",
			"actively-maintained", "production-ready",
		},
		OpenLicenses: []string{"MIT", "Apache-2.0", "BSD-3-Clause", "ISC"},
		NegativeNames: []string{
			"awesome-", "list-", "collection", "curated",
			"interview", "cheatsheet", "tutorial",
		},
		SpamKeywords: []string{
			"airdrop", "free money", "hack tool", "crack",
			"star this", "give me star",
		},
	}
}

// DomainWeight returns the weight for d; unknown domains weigh 1.
func (r *Rules) DomainWeight(d source.Domain) int {
	if w, ok := r.DomainWeights[d]; ok && w > 0 {
		return w
	}
	return 1
}

// IsOpenLicense reports whether license is in the approved set.
func (r *Rules) IsOpenLicense(license string) bool {
	if license == "" {
		return false
	}
	for _, l := range r.OpenLicenses {
		if l == license {
			return true
		}
	}
	return false
}
