package config

import (
	"strings"
)

// Config carries every knob the tool accepts. Flags take precedence,
// then values from the JSON config file, then environment variables
// (GITHUB_TOKEN, GITHUB_APP_ID, GITHUB_PRIVATE_KEY_PATH).
type Config struct {
	// Authentication
	Token          string `json:"token" envconfig:"TOKEN"`
	AppID          int64  `json:"app_id" envconfig:"APP_ID"`
	PrivateKey     string `json:"private_key" envconfig:"PRIVATE_KEY_PATH"`
	InstallationID string `json:"installation_id" envconfig:"INSTALLATION_ID"`

	// Scope
	Org      string   `json:"org"`
	OrgIDs   string   `json:"org_ids"`
	Repos    []string `json:"repos"`
	DaysBack int      `json:"days_back" validate:"gt=0"`

	// Output
	OutputDir string `json:"output_dir" validate:"required"`
	Format    string `json:"format" validate:"oneof=json csv excel all"`
	Timezone  string `json:"timezone"`

	// Logging
	LogLevel string `json:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string `json:"log_file"`

	// Analysis
	IncludeForks    bool `json:"include_forks"`
	IncludeArchived bool `json:"include_archived"`
	MaxRepos        int  `json:"max_repos" validate:"gt=0"`
	ExcludeBots     bool `json:"exclude_bots"`
	IncludeEmpty    bool `json:"include_empty"`
}

// Flag defaults.
const (
	DefaultDaysBack  = 30
	DefaultMaxRepos  = 100
	DefaultOutputDir = "output"
	DefaultFormat    = "excel"
	DefaultLogLevel  = "info"
	DefaultTimezone  = "UTC"
)

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		DaysBack:  DefaultDaysBack,
		MaxRepos:  DefaultMaxRepos,
		OutputDir: DefaultOutputDir,
		Format:    DefaultFormat,
		LogLevel:  DefaultLogLevel,
		Timezone:  DefaultTimezone,
	}
}

// Organizations resolves the organization scope from --org / --org-ids.
func (c *Config) Organizations() []string {
	if c.Org != "" {
		return []string{c.Org}
	}
	var orgs []string
	for _, o := range strings.Split(c.OrgIDs, ",") {
		if o = strings.TrimSpace(o); o != "" {
			orgs = append(orgs, o)
		}
	}
	return orgs
}

// UseAppAuth reports whether GitHub App credentials are in play.
func (c *Config) UseAppAuth() bool {
	return c.Token == "" && c.AppID != 0 && c.PrivateKey != ""
}
