package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/github-tools/github-org-stats/auth"
	"github.com/github-tools/github-org-stats/cache"
	"github.com/github-tools/github-org-stats/collector"
	"github.com/github-tools/github-org-stats/config"
	"github.com/github-tools/github-org-stats/gh"
	"github.com/github-tools/github-org-stats/ratelimit"
	"github.com/github-tools/github-org-stats/report"
)

// rateLimitLogEvery controls how often the remaining quota is logged
// during repository processing.
const rateLimitLogEvery = 10

// multiOrgScope names report files when more than one organization is
// analyzed in a single run.
const multiOrgScope = "multi_org"

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	start := time.Now()
	orgs := cfg.Organizations()
	tracker := collector.NewErrorTracker()

	clients, err := newClientProvider(ctx, cfg, log)
	if err != nil {
		return err
	}

	var records []collector.Record
	skipped := 0

	for _, org := range orgs {
		client, err := clients.For(ctx, org)
		if err != nil {
			log.Errorf("authentication for %s failed: %v", org, err)
			tracker.Add(org, "auth", err.Error(), "")
			continue
		}

		recs, s := runOrg(ctx, cfg, log, client, tracker, org)
		records = append(records, recs...)
		skipped += s

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if len(records) == 0 {
		return fmt.Errorf("no repository data collected")
	}

	if err := writeReports(cfg, log, orgs, records); err != nil {
		return err
	}

	log.Infof("analysis complete: %d repositories across %d organization(s) in %s",
		len(records), len(orgs), time.Since(start).Round(time.Second))
	if skipped > 0 {
		log.Infof("skipped %d repositories with no activity in the last %d days", skipped, cfg.DaysBack)
	}

	if sum := tracker.Summary(); sum.TotalErrors > 0 {
		log.Warnf("%d collection errors across %d repositories", sum.TotalErrors, sum.ReposWithErrors)
		for category, n := range sum.ErrorsByCategory {
			log.Warnf("  %s: %d", category, n)
		}
	}
	return nil
}

// runOrg lists, filters, and analyzes one organization's repositories.
// Failures are recorded and the run continues with the next org.
func runOrg(ctx context.Context, cfg *config.Config, log *logrus.Logger, client *gh.Client, tracker *collector.ErrorTracker, org string) ([]collector.Record, int) {
	orgInfo, ok := gh.Call(ctx, client, "GetOrganization", org,
		func(ctx context.Context) (*github.Organization, *github.Response, error) {
			return client.GH.Organizations.Get(ctx, org)
		})
	if !ok {
		log.Errorf("cannot access organization %s", org)
		tracker.Add(org, "org_access", "organization not accessible", "")
		return nil, 0
	}
	log.Infof("analyzing organization %s (%d public repositories)", org, orgInfo.GetPublicRepos())

	repos, ok := gh.Paginate(ctx, client, "ListByOrg", org,
		func(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
			return client.GH.Repositories.ListByOrg(ctx, org, &github.RepositoryListByOrgOptions{
				Type:        "all",
				ListOptions: github.ListOptions{PerPage: 100, Page: page},
			})
		})
	if !ok && len(repos) == 0 {
		log.Errorf("could not list repositories for %s", org)
		tracker.Add(org, "list_repos", "repository listing failed", "")
		return nil, 0
	}

	selected := filterRepos(cfg, repos)
	if cfg.MaxRepos > 0 && len(selected) == cfg.MaxRepos && len(repos) > cfg.MaxRepos {
		log.Warnf("%s: limiting analysis to the first %d repositories", org, cfg.MaxRepos)
	}
	log.Infof("%s: analyzing %d of %d repositories", org, len(selected), len(repos))

	coll := collector.New(client, log, tracker, cfg.DaysBack, cfg.ExcludeBots)

	bar, err := pterm.DefaultProgressbar.
		WithTotal(len(selected)).
		WithTitle("Analyzing " + org).
		Start()
	if err != nil {
		log.Warnf("progress bar unavailable: %v", err)
		bar = nil
	}

	var records []collector.Record
	skipped := 0
	for i, repo := range selected {
		if ctx.Err() != nil {
			break
		}

		rec := coll.Collect(ctx, org, repo)
		if rec.TotalCommits == 0 && !cfg.IncludeEmpty {
			log.Debugf("skipping %s: no commits in the last %d days", repo.GetName(), cfg.DaysBack)
			skipped++
		} else {
			records = append(records, rec)
		}
		if bar != nil {
			bar.Increment()
		}

		if (i+1)%rateLimitLogEvery == 0 {
			client.LogRateLimit(ctx)
		}
	}
	if bar != nil {
		bar.Stop()
	}
	return records, skipped
}

// filterRepos applies the fork/archived/name filters and the repo cap.
func filterRepos(cfg *config.Config, repos []*github.Repository) []*github.Repository {
	var wanted map[string]bool
	if len(cfg.Repos) > 0 {
		wanted = make(map[string]bool, len(cfg.Repos))
		for _, name := range cfg.Repos {
			wanted[strings.ToLower(name)] = true
		}
	}

	out := make([]*github.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo.GetFork() && !cfg.IncludeForks {
			continue
		}
		if repo.GetArchived() && !cfg.IncludeArchived {
			continue
		}
		if wanted != nil && !wanted[strings.ToLower(repo.GetName())] {
			continue
		}
		out = append(out, repo)
	}
	if cfg.MaxRepos > 0 && len(out) > cfg.MaxRepos {
		out = out[:cfg.MaxRepos]
	}
	return out
}

func writeReports(cfg *config.Config, log *logrus.Logger, orgs []string, records []collector.Record) error {
	scope := multiOrgScope
	if len(orgs) == 1 {
		scope = orgs[0]
	}
	writer, err := report.NewWriter(cfg.OutputDir, scope, cfg.Timezone, log)
	if err != nil {
		return err
	}

	format := strings.ToLower(cfg.Format)
	all := format == "all"

	if all || format == "json" {
		path, err := writer.WriteJSON(orgs, records)
		if err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
		log.Infof("JSON report written to %s", path)
	}

	// Tabular formats get language names normalized for use as columns.
	sanitized := report.SanitizeLanguageNames(records)

	if all || format == "csv" {
		path, err := writer.WriteCSV(sanitized)
		if err != nil {
			return fmt.Errorf("writing CSV report: %w", err)
		}
		log.Infof("CSV report written to %s", path)
	}
	if all || format == "excel" {
		path, err := writer.WriteExcel(orgs, sanitized)
		if err != nil {
			return fmt.Errorf("writing Excel report: %w", err)
		}
		log.Infof("Excel report written to %s", path)
	}
	return nil
}

// clientProvider hands out an authenticated API client per
// organization. With a personal access token a single client serves
// every org; with App auth each org gets a client built from its
// installation token, while the rate limiter and forbidden-call cache
// are shared across them.
type clientProvider struct {
	log *logrus.Logger

	shared *gh.Client

	tokens    *auth.TokenManager
	explicit  map[string]int64
	limiter   *ratelimit.Limiter
	forbidden *cache.Forbidden
}

func newClientProvider(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*clientProvider, error) {
	if cfg.Token != "" {
		client, err := gh.NewWithToken(ctx, cfg.Token, log)
		if err != nil {
			return nil, err
		}
		user, ok := gh.Call(ctx, client, "GetAuthenticatedUser", "",
			func(ctx context.Context) (*github.User, *github.Response, error) {
				return client.GH.Users.Get(ctx, "")
			})
		if !ok {
			return nil, fmt.Errorf("token authentication failed")
		}
		log.Infof("authenticated as %s", user.GetLogin())
		return &clientProvider{log: log, shared: client}, nil
	}

	key, err := auth.LoadPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(ctx, cfg.AppID, key)
	if err != nil {
		return nil, err
	}
	var explicit map[string]int64
	if cfg.InstallationID != "" {
		explicit, err = config.ParseInstallationIDs(cfg.InstallationID)
		if err != nil {
			return nil, err
		}
	}
	forbidden, err := cache.NewForbidden()
	if err != nil {
		return nil, err
	}
	log.Infof("authenticated as GitHub App %d", cfg.AppID)
	return &clientProvider{
		log:       log,
		tokens:    tokens,
		explicit:  explicit,
		limiter:   ratelimit.New(),
		forbidden: forbidden,
	}, nil
}

// For returns the client to use for an organization.
func (p *clientProvider) For(ctx context.Context, org string) (*gh.Client, error) {
	if p.shared != nil {
		return p.shared, nil
	}

	id, err := p.tokens.ResolveInstallation(ctx, org, p.explicit)
	if err != nil {
		return nil, err
	}
	token, err := p.tokens.InstallationToken(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := gh.NewWithToken(ctx, token, p.log)
	if err != nil {
		return nil, err
	}
	client.Limiter = p.limiter
	client.Forbidden = p.forbidden
	p.log.Debugf("using installation %d for %s", id, org)
	return client, nil
}
