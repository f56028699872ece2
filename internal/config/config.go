package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/reporadar/pkg/source"
	"github.com/elonfeng/reporadar/pkg/trend"
)

// Config is the root configuration.
type Config struct {
	Ledger   LedgerConfig   `yaml:"ledger"`
	Database DatabaseConfig `yaml:"database"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// LedgerConfig points at the historical summary document.
type LedgerConfig struct {
	Path  string `yaml:"path"`
	Model string `yaml:"model"` // default model name for summary rows
}

// DatabaseConfig configures the SQLite run archive.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScoringConfig configures ranking and the rule tables.
type ScoringConfig struct {
	Domain string      `yaml:"domain"` // "all" infers per repository
	Top    int         `yaml:"top"`
	Rules  RulesConfig `yaml:"rules"`
}

// RulesConfig overrides individual rule tables. Empty tables keep the
// built-in defaults.
type RulesConfig struct {
	Domains         []DomainEntry  `yaml:"domains"`
	Languages       []LanguageItem `yaml:"languages"`
	DomainWeights   map[string]int `yaml:"domain_weights"`
	PainKeywords    []string       `yaml:"pain_keywords"`
	DisruptKeywords []string       `yaml:"disrupt_keywords"`
	PositiveTopics  []string       `yaml:"positive_topics"`
	OpenLicenses    []string       `yaml:"open_licenses"`
	NegativeNames   []string       `yaml:"negative_names"`
	SpamKeywords    []string       `yaml:"spam_keywords"`
}

// DomainEntry is one catalog domain and its keywords. Order is significant.
type DomainEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// LanguageItem maps a language to a fallback domain.
type LanguageItem struct {
	Language string `yaml:"language"`
	Domain   string `yaml:"domain"`
}

// AlertsConfig configures digest delivery.
type AlertsConfig struct {
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
	Attempts uint          `yaml:"attempts"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Ledger:   LedgerConfig{Path: "./summary.md"},
		Database: DatabaseConfig{Path: "./reporadar.db"},
		Scoring: ScoringConfig{
			Domain: string(source.DomainAll),
			Top:    5,
		},
		Alerts: AlertsConfig{Attempts: 3},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no run could work with.
func (c *Config) Validate() error {
	if c.Scoring.Top < 0 {
		return fmt.Errorf("scoring.top must not be negative, got %d", c.Scoring.Top)
	}
	for name, w := range c.Scoring.Rules.DomainWeights {
		if w <= 0 {
			return fmt.Errorf("scoring.rules.domain_weights.%s must be positive, got %d", name, w)
		}
	}
	for _, d := range c.Scoring.Rules.Domains {
		if d.Name == "" {
			return fmt.Errorf("scoring.rules.domains: entry without name")
		}
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPORADAR_LEDGER"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("REPORADAR_MODEL"); v != "" {
		cfg.Ledger.Model = v
	}
	if v := os.Getenv("REPORADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REPORADAR_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.Top = n
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("REPORADAR_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("REPORADAR_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}

// Rules builds the scoring rules: defaults with every configured list
// replacing its built-in counterpart. Domain weights merge per domain.
func (c *Config) Rules() trend.Rules {
	rules := trend.DefaultRules()
	rc := c.Scoring.Rules

	if len(rc.Domains) > 0 {
		rules.Catalog = make([]trend.DomainKeywords, len(rc.Domains))
		for i, d := range rc.Domains {
			rules.Catalog[i] = trend.DomainKeywords{Domain: source.Domain(d.Name), Keywords: d.Keywords}
		}
	}
	if len(rc.Languages) > 0 {
		rules.Languages = make([]trend.LanguageDomain, len(rc.Languages))
		for i, l := range rc.Languages {
			rules.Languages[i] = trend.LanguageDomain{Language: l.Language, Domain: source.Domain(l.Domain)}
		}
	}
	if len(rc.DomainWeights) > 0 {
		for name, w := range rc.DomainWeights {
			rules.DomainWeights[source.Domain(name)] = w
		}
	}
	override(&rules.PainKeywords, rc.PainKeywords)
	override(&rules.DisruptKeywords, rc.DisruptKeywords)
	override(&rules.PositiveTopics, rc.PositiveTopics)
	override(&rules.OpenLicenses, rc.OpenLicenses)
	override(&rules.NegativeNames, rc.NegativeNames)
	override(&rules.SpamKeywords, rc.SpamKeywords)
	return rules
}

func override(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}
