// Package config loads and validates the tool configuration from CLI
// flags, an optional JSON config file, and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for environment fallback variables
// (GITHUB_TOKEN, GITHUB_APP_ID, GITHUB_PRIVATE_KEY_PATH, ...).
const EnvPrefix = "GITHUB"

type Loader struct {
	Prefix   string
	Validate *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{Prefix: EnvPrefix, Validate: validator.New()}
}

// Load finalizes cfg: .env overlay, config-file merge, environment
// fallback for credentials, then validation. Flag values already set on
// cfg win over everything else.
func (l *Loader) Load(cfg *Config, configFile string) error {
	loadDotEnv()

	if configFile != "" {
		if err := mergeConfigFile(cfg, configFile); err != nil {
			return err
		}
	}

	var env Config
	if err := envconfig.Process(l.Prefix, &env); err != nil {
		return fmt.Errorf("env load: %w", err)
	}
	if cfg.Token == "" {
		cfg.Token = env.Token
	}
	if cfg.AppID == 0 {
		cfg.AppID = env.AppID
	}
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = env.PrivateKey
	}
	if cfg.InstallationID == "" {
		cfg.InstallationID = env.InstallationID
	}

	if err := l.Validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return l.validateCross(cfg)
}

// validateCross enforces the rules that span multiple fields.
func (l *Loader) validateCross(cfg *Config) error {
	if cfg.Token == "" && (cfg.AppID == 0 || cfg.PrivateKey == "") {
		return fmt.Errorf("authentication required: provide either --token or both --app-id and --private-key")
	}
	if cfg.AppID != 0 && cfg.PrivateKey == "" {
		return fmt.Errorf("GitHub App authentication requires both --app-id and --private-key")
	}
	if cfg.PrivateKey != "" {
		if _, err := os.Stat(cfg.PrivateKey); err != nil {
			return fmt.Errorf("private key file not found: %s", cfg.PrivateKey)
		}
	}
	if cfg.Org != "" && cfg.OrgIDs != "" {
		return fmt.Errorf("--org and --org-ids are mutually exclusive")
	}
	if len(cfg.Organizations()) == 0 {
		return fmt.Errorf("organization scope required: provide --org or --org-ids")
	}
	if cfg.InstallationID != "" {
		if _, err := ParseInstallationIDs(cfg.InstallationID); err != nil {
			return fmt.Errorf("invalid installation ID format: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// mergeConfigFile fills zero-valued fields of cfg from a JSON file so
// explicit flags keep precedence.
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("configuration file not found: %s", path)
	}
	var file Config
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("invalid JSON in configuration file: %w", err)
	}

	if cfg.Token == "" {
		cfg.Token = file.Token
	}
	if cfg.AppID == 0 {
		cfg.AppID = file.AppID
	}
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = file.PrivateKey
	}
	if cfg.InstallationID == "" {
		cfg.InstallationID = file.InstallationID
	}
	if cfg.Org == "" {
		cfg.Org = file.Org
	}
	if cfg.OrgIDs == "" {
		cfg.OrgIDs = file.OrgIDs
	}
	if len(cfg.Repos) == 0 {
		cfg.Repos = file.Repos
	}
	if cfg.DaysBack == DefaultDaysBack && file.DaysBack != 0 {
		cfg.DaysBack = file.DaysBack
	}
	if cfg.OutputDir == DefaultOutputDir && file.OutputDir != "" {
		cfg.OutputDir = file.OutputDir
	}
	if cfg.Format == DefaultFormat && file.Format != "" {
		cfg.Format = file.Format
	}
	if cfg.Timezone == DefaultTimezone && file.Timezone != "" {
		cfg.Timezone = file.Timezone
	}
	if cfg.MaxRepos == DefaultMaxRepos && file.MaxRepos != 0 {
		cfg.MaxRepos = file.MaxRepos
	}
	return nil
}

func loadDotEnv() {
	files := []string{".env"}
	if appEnv := strings.TrimSpace(os.Getenv("APP_ENV")); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Overload(f)
		}
	}
}
