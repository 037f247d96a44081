// Package cmd defines the command-line interface: flag handling,
// configuration assembly, and the collection run itself.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/github-tools/github-org-stats/config"
	"github.com/github-tools/github-org-stats/logging"
)

var (
	cfg            = config.NewConfig()
	configFile     string
	installIDAlias string
)

var rootCmd = &cobra.Command{
	Use:   "github-org-stats",
	Short: "Collect repository statistics for GitHub organizations",
	Long: `github-org-stats collects descriptive statistics (commits, languages,
contributors, releases, CI workflows, branch protection) for every
repository in one or more GitHub organizations and exports JSON, CSV,
and Excel reports.

Examples:
  github-org-stats --org myorg --token ghp_xxx
  github-org-stats --org myorg --app-id 12345 --private-key key.pem --installation-id 67890
  github-org-stats --org-ids org1,org2 --app-id 12345 --private-key key.pem --installation-id "org1:111,org2:222"
  github-org-stats --org myorg --config config.json --output-dir ./reports --format all`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// --installation-ids is an alias kept for compatibility.
		if cfg.InstallationID == "" && installIDAlias != "" {
			cfg.InstallationID = installIDAlias
		}

		if err := config.NewLoader().Load(cfg, configFile); err != nil {
			return err
		}

		log, logFile, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		if logFile != nil {
			defer logFile.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, log)
	},
}

func init() {
	flags := rootCmd.Flags()

	// Authentication
	flags.StringVar(&cfg.Token, "token", "", "GitHub personal access token")
	flags.Int64Var(&cfg.AppID, "app-id", 0, "GitHub App ID for authentication")
	flags.StringVar(&cfg.PrivateKey, "private-key", "", "path to GitHub App private key file")
	flags.StringVar(&cfg.InstallationID, "installation-id", "", `GitHub App installation ID ("12345" or "org1:id1,org2:id2")`)
	flags.StringVar(&installIDAlias, "installation-ids", "", "alias for --installation-id")

	// Scope
	flags.StringVar(&cfg.Org, "org", "", "GitHub organization to analyze")
	flags.StringVar(&cfg.OrgIDs, "org-ids", "", "comma-separated list of organizations to analyze")
	flags.StringSliceVar(&cfg.Repos, "repos", nil, "specific repositories to analyze (default: all)")
	flags.IntVar(&cfg.DaysBack, "days-back", config.DefaultDaysBack, "number of days to look back for activity")

	// Output
	flags.StringVar(&cfg.OutputDir, "output-dir", config.DefaultOutputDir, "output directory for reports")
	flags.StringVar(&cfg.Format, "format", config.DefaultFormat, "output format (json, csv, excel, all)")
	flags.StringVar(&configFile, "config", "", "configuration file path (JSON format)")
	flags.StringVar(&cfg.Timezone, "timezone", config.DefaultTimezone, "timezone for report timestamps")

	// Logging
	flags.StringVar(&cfg.LogLevel, "log-level", config.DefaultLogLevel, "logging level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", "", "log file path (default: console only)")

	// Analysis
	flags.BoolVar(&cfg.IncludeForks, "include-forks", false, "include forked repositories in analysis")
	flags.BoolVar(&cfg.IncludeArchived, "include-archived", false, "include archived repositories in analysis")
	flags.IntVar(&cfg.MaxRepos, "max-repos", config.DefaultMaxRepos, "maximum number of repositories to analyze")
	flags.BoolVar(&cfg.ExcludeBots, "exclude-bots", false, "exclude bot accounts from contributor and commit statistics")
	flags.BoolVar(&cfg.IncludeEmpty, "include-empty", false, "include repositories with no commits in the lookback window")
}

// Execute runs the root command; a non-nil error means exit code 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
