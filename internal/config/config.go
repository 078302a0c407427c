package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AccountRole distinguishes the parent account from its sub-accounts.
type AccountRole string

const (
	RoleParent AccountRole = "parent"
	RoleSub    AccountRole = "sub"
)

// Region selects the API base URL for an account.
type Region string

const (
	RegionUS Region = "US"
	RegionEU Region = "EU"
)

// AccountConfig identifies one SendGrid account and its credential.
// The set is loaded once at startup and read-only afterwards.
type AccountConfig struct {
	Name   string      `yaml:"name"`
	APIKey string      `yaml:"api_key"`
	Role   AccountRole `yaml:"role"`
	Region Region      `yaml:"region"`
}

// SuppressionConfig holds the reconciler settings.
type SuppressionConfig struct {
	Accounts       []AccountConfig `yaml:"accounts"`
	DelayMillis    int             `yaml:"delay_millis"`
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	PageLimit      int             `yaml:"page_limit"`
	MaxPages       int             `yaml:"max_pages"`
}

// Delay returns the fixed pause between consecutive API calls.
func (c SuppressionConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (c SuppressionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NerdGraphConfig holds the GraphQL API settings.
type NerdGraphConfig struct {
	APIKey         string `yaml:"api_key"`
	Region         Region `yaml:"region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a duration.
func (c NerdGraphConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SCIMConfig holds the SCIM provisioning API settings.
type SCIMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a duration.
func (c SCIMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogConfig controls the audit log sink.
type LogConfig struct {
	Dir       string `yaml:"dir"`
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether emails should be masked in log output.
// Defaults to true.
func (c LogConfig) Redact() bool {
	if c.RedactPII == nil {
		return true
	}
	return *c.RedactPII
}

// MarkersConfig holds deployment-marker defaults.
type MarkersConfig struct {
	DefaultVersion string `yaml:"default_version"`
}

// Config holds all configuration for the toolkit.
type Config struct {
	Suppression SuppressionConfig `yaml:"suppression"`
	NerdGraph   NerdGraphConfig   `yaml:"nerdgraph"`
	SCIM        SCIMConfig        `yaml:"scim"`
	Log         LogConfig         `yaml:"log"`
	Markers     MarkersConfig     `yaml:"markers"`
}

// Load reads and parses the configuration file. A missing file yields
// an all-defaults config so env-only setups work.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	// Defaults
	if cfg.Suppression.DelayMillis == 0 {
		cfg.Suppression.DelayMillis = 100
	}
	if cfg.Suppression.TimeoutSeconds == 0 {
		cfg.Suppression.TimeoutSeconds = 10
	}
	if cfg.Suppression.PageLimit == 0 {
		cfg.Suppression.PageLimit = 500
	}
	if cfg.Suppression.MaxPages == 0 {
		cfg.Suppression.MaxPages = 500
	}
	if cfg.NerdGraph.Region == "" {
		cfg.NerdGraph.Region = RegionUS
	}
	if cfg.NerdGraph.TimeoutSeconds == 0 {
		cfg.NerdGraph.TimeoutSeconds = 30
	}
	if cfg.SCIM.BaseURL == "" {
		cfg.SCIM.BaseURL = "https://scim-provisioning.service.newrelic.com"
	}
	if cfg.SCIM.TimeoutSeconds == 0 {
		cfg.SCIM.TimeoutSeconds = 15
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = "logs"
	}
	if cfg.Markers.DefaultVersion == "" {
		cfg.Markers.DefaultVersion = "0.0.1"
	}

	for i := range cfg.Suppression.Accounts {
		normalizeAccount(&cfg.Suppression.Accounts[i])
	}

	return &cfg, nil
}

// LoadFromEnv loads the configuration file with environment overrides.
// A .env file (if present) is read first, so secrets can live there
// locally and in real env vars elsewhere.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Env-provided SendGrid accounts are merged over the YAML list:
	// same name replaces the key, new names are appended.
	for _, acct := range AccountsFromEnv(os.Environ()) {
		replaced := false
		for i := range cfg.Suppression.Accounts {
			if cfg.Suppression.Accounts[i].Name == acct.Name {
				cfg.Suppression.Accounts[i].APIKey = acct.APIKey
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Suppression.Accounts = append(cfg.Suppression.Accounts, acct)
		}
	}
	SortAccounts(cfg.Suppression.Accounts)

	if v := os.Getenv("NERDGRAPH_API_KEY"); v != "" {
		cfg.NerdGraph.APIKey = v
	}
	if v := os.Getenv("NEW_RELIC_API_KEY"); v != "" && cfg.NerdGraph.APIKey == "" {
		cfg.NerdGraph.APIKey = v
	}
	if v := os.Getenv("NERDGRAPH_REGION"); v != "" {
		cfg.NerdGraph.Region = Region(strings.ToUpper(v))
	}
	if v := os.Getenv("SCIM_TOKEN"); v != "" {
		cfg.SCIM.Token = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}

const (
	envKeyPrefix = "SENDGRID_"
	envKeySuffix = "_KEY"
)

// AccountsFromEnv extracts SendGrid accounts from SENDGRID_<NAME>_KEY
// environment entries. The account name is the variable middle,
// lowercased with underscores turned into dots; SENDGRID_PARENT_KEY
// becomes the parent account. Placeholder values are ignored.
func AccountsFromEnv(environ []string) []AccountConfig {
	var accounts []AccountConfig
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envKeyPrefix) || !strings.HasSuffix(name, envKeySuffix) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, envKeyPrefix), envKeySuffix)
		if middle == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `'"`)
		if value == "" || strings.HasSuffix(value, "your_key_here") {
			continue
		}

		acct := AccountConfig{
			Name:   strings.ReplaceAll(strings.ToLower(middle), "_", "."),
			APIKey: value,
		}
		normalizeAccount(&acct)
		accounts = append(accounts, acct)
	}
	SortAccounts(accounts)
	return accounts
}

// SortAccounts orders accounts for display: parent first, then
// sub-accounts by name. The reconciler walks accounts in this order.
func SortAccounts(accounts []AccountConfig) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if (accounts[i].Role == RoleParent) != (accounts[j].Role == RoleParent) {
			return accounts[i].Role == RoleParent
		}
		return accounts[i].Name < accounts[j].Name
	})
}

func normalizeAccount(a *AccountConfig) {
	if a.Role == "" {
		if a.Name == "parent" {
			a.Role = RoleParent
		} else {
			a.Role = RoleSub
		}
	}
	if a.Region == "" {
		// "eu" anywhere in the dotted name selects the EU endpoint,
		// e.g. notifications.eu.production.
		if strings.Contains("."+a.Name+".", ".eu.") || strings.Contains(a.Name, "eu-") {
			a.Region = RegionEU
		} else {
			a.Region = RegionUS
		}
	}
}
