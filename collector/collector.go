// Package collector gathers per-repository statistics. Every sub-query
// is independently fault-isolated: a failed or missing field gets its
// documented default and never blocks the rest of the repository.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"

	"github.com/github-tools/github-org-stats/gh"
)

const (
	// topContributors caps the contributor list per repository.
	topContributors = 10

	// recentRunsWindow caps the workflow-run lookback.
	recentRunsWindow = 10

	// commitMessageLimit truncates the latest-commit message.
	commitMessageLimit = 100
)

type Collector struct {
	client      *gh.Client
	log         *logrus.Logger
	tracker     *ErrorTracker
	daysBack    int
	excludeBots bool
	now         func() time.Time
}

func New(client *gh.Client, log *logrus.Logger, tracker *ErrorTracker, daysBack int, excludeBots bool) *Collector {
	return &Collector{
		client:      client,
		log:         log,
		tracker:     tracker,
		daysBack:    daysBack,
		excludeBots: excludeBots,
		now:         time.Now,
	}
}

// track records a per-repository collection failure. The tracker is
// optional so the collector stays usable on its own.
func (c *Collector) track(repo, category, message string) {
	if c.tracker == nil {
		return
	}
	c.tracker.Add(repo, category, message, "")
}

// Collect builds the full statistics record for one repository.
func (c *Collector) Collect(ctx context.Context, org string, repo *github.Repository) Record {
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = org
	}
	name := repo.GetName()
	rec := c.metadata(org, repo)

	c.log.Debugf("collecting commit statistics for %s", name)
	c.commitStats(ctx, owner, name, &rec)

	c.log.Debugf("collecting language statistics for %s", name)
	c.languages(ctx, owner, name, &rec)

	c.log.Debugf("collecting topics for %s", name)
	rec.Topics, _ = gh.Call(ctx, c.client, "ListAllTopics", owner+"/"+name,
		func(ctx context.Context) ([]string, *github.Response, error) {
			return c.client.GH.Repositories.ListAllTopics(ctx, owner, name)
		})

	c.log.Debugf("collecting contributors for %s", name)
	c.contributors(ctx, owner, name, &rec)

	c.log.Debugf("collecting branch/tag counts for %s", name)
	c.branchesAndTags(ctx, owner, name, &rec)

	c.log.Debugf("collecting release information for %s", name)
	c.releases(ctx, owner, name, &rec)

	c.log.Debugf("collecting Actions information for %s", name)
	c.actions(ctx, owner, name, &rec)

	c.log.Debugf("collecting branch protection for %s", name)
	c.branchProtection(ctx, owner, name, repo.GetDefaultBranch(), &rec)

	c.log.Debugf("collecting latest commit for %s", name)
	c.latestCommit(ctx, owner, name, &rec)

	c.log.Debugf("collecting dependency manifests for %s", name)
	rec.Dependencies = c.dependencies(ctx, owner, name)

	c.log.Debugf("collecting submodules for %s", name)
	rec.Submodules = c.submodules(ctx, owner, name)
	rec.SubmodulesCount = len(rec.Submodules)

	rec.AnalyzedAt = c.now()
	return rec
}

func (c *Collector) metadata(org string, repo *github.Repository) Record {
	rec := Record{
		Organization:    org,
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		Description:     repo.GetDescription(),
		Private:         repo.GetPrivate(),
		Fork:            repo.GetFork(),
		Archived:        repo.GetArchived(),
		Disabled:        repo.GetDisabled(),
		Size:            repo.GetSize(),
		StargazersCount: repo.GetStargazersCount(),
		WatchersCount:   repo.GetWatchersCount(),
		ForksCount:      repo.GetForksCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		DefaultBranch:   repo.GetDefaultBranch(),
		Language:        repo.GetLanguage(),
		HasIssues:       repo.GetHasIssues(),
		HasProjects:     repo.GetHasProjects(),
		HasWiki:         repo.GetHasWiki(),
		HasPages:        repo.GetHasPages(),
		HasDownloads:    repo.GetHasDownloads(),
		License:         repo.GetLicense().GetName(),
		CloneURL:        repo.GetCloneURL(),
		HTMLURL:         repo.GetHTMLURL(),
	}
	if repo.CreatedAt != nil {
		t := repo.CreatedAt.Time
		rec.CreatedAt = &t
	}
	if repo.UpdatedAt != nil {
		t := repo.UpdatedAt.Time
		rec.UpdatedAt = &t
	}
	if repo.PushedAt != nil {
		t := repo.PushedAt.Time
		rec.PushedAt = &t
	}
	return rec
}

// commitStats fills the commit count, author breakdown, and per-day
// histogram for the lookback window.
func (c *Collector) commitStats(ctx context.Context, owner, name string, rec *Record) {
	since := c.now().AddDate(0, 0, -c.daysBack)
	commits, ok := gh.Paginate(ctx, c.client, "ListCommits", owner+"/"+name,
		func(ctx context.Context, page int) ([]*github.RepositoryCommit, *github.Response, error) {
			return c.client.GH.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
				Since:       since,
				ListOptions: github.ListOptions{PerPage: 100, Page: page},
			})
		})
	if !ok {
		c.track(name, "commits", "failed to collect commit statistics")
		return
	}

	authors := make(map[string]int)
	byDay := make(map[string]int)
	total := 0
	for _, commit := range commits {
		if commit == nil {
			continue
		}
		login := commit.GetAuthor().GetLogin()
		if c.excludeBots && IsBot(login) {
			continue
		}
		total++
		if login != "" {
			authors[login]++
		}
		if d := commit.GetCommit().GetAuthor().GetDate(); !d.IsZero() {
			byDay[d.Format("2006-01-02")]++
		}
	}

	rec.TotalCommits = total
	rec.UniqueAuthors = len(authors)
	rec.CommitAuthors = authors
	rec.CommitsByDay = byDay
}

func (c *Collector) languages(ctx context.Context, owner, name string, rec *Record) {
	langs, ok := gh.Call(ctx, c.client, "ListLanguages", owner+"/"+name,
		func(ctx context.Context) (map[string]int, *github.Response, error) {
			return c.client.GH.Repositories.ListLanguages(ctx, owner, name)
		})
	if !ok {
		c.track(name, "languages", "failed to collect language statistics")
		return
	}
	if len(langs) == 0 {
		return
	}
	rec.Languages = langs
	total := 0
	for _, b := range langs {
		total += b
	}
	rec.TotalCodeBytes = total
	rec.PrimaryLanguage = PrimaryLanguage(langs)
}

// PrimaryLanguage picks the language with the most bytes. Ties resolve
// to the lexicographically smallest name so the result is stable.
func PrimaryLanguage(langs map[string]int) string {
	names := make([]string, 0, len(langs))
	for l := range langs {
		names = append(names, l)
	}
	sort.Strings(names)

	best := ""
	bestBytes := -1
	for _, l := range names {
		if langs[l] > bestBytes {
			best = l
			bestBytes = langs[l]
		}
	}
	return best
}

func (c *Collector) contributors(ctx context.Context, owner, name string, rec *Record) {
	raw, ok := gh.Call(ctx, c.client, "ListContributors", owner+"/"+name,
		func(ctx context.Context) ([]*github.Contributor, *github.Response, error) {
			return c.client.GH.Repositories.ListContributors(ctx, owner, name, &github.ListContributorsOptions{
				ListOptions: github.ListOptions{PerPage: topContributors},
			})
		})
	if !ok {
		c.track(name, "contributors", "failed to collect contributors")
		return
	}

	contributors := make([]Contributor, 0, len(raw))
	for _, u := range raw {
		contributors = append(contributors, Contributor{
			Login:         u.GetLogin(),
			Contributions: u.GetContributions(),
			AvatarURL:     u.GetAvatarURL(),
			HTMLURL:       u.GetHTMLURL(),
		})
	}
	rec.Contributors = FilterBots(contributors, c.excludeBots)
	rec.ContributorsCount = len(rec.Contributors)
}

func (c *Collector) branchesAndTags(ctx context.Context, owner, name string, rec *Record) {
	branches, ok := gh.Paginate(ctx, c.client, "ListBranches", owner+"/"+name,
		func(ctx context.Context, page int) ([]*github.Branch, *github.Response, error) {
			return c.client.GH.Repositories.ListBranches(ctx, owner, name, &github.BranchListOptions{
				ListOptions: github.ListOptions{PerPage: 100, Page: page},
			})
		})
	if ok {
		rec.BranchesCount = len(branches)
	} else {
		c.track(name, "branches", "failed to count branches")
	}

	tags, ok := gh.Paginate(ctx, c.client, "ListTags", owner+"/"+name,
		func(ctx context.Context, page int) ([]*github.RepositoryTag, *github.Response, error) {
			return c.client.GH.Repositories.ListTags(ctx, owner, name, &github.ListOptions{PerPage: 100, Page: page})
		})
	if ok {
		rec.TagsCount = len(tags)
	} else {
		c.track(name, "tags", "failed to count tags")
	}
}

func (c *Collector) releases(ctx context.Context, owner, name string, rec *Record) {
	releases, ok := gh.Paginate(ctx, c.client, "ListReleases", owner+"/"+name,
		func(ctx context.Context, page int) ([]*github.RepositoryRelease, *github.Response, error) {
			return c.client.GH.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: 100, Page: page})
		})
	if !ok {
		c.track(name, "releases", "failed to collect releases")
		return
	}
	if len(releases) == 0 {
		return
	}

	latest := releases[0]
	rec.LatestRelease = latest.GetTagName()
	rec.ReleaseURL = latest.GetHTMLURL()
	rec.TotalReleases = len(releases)
	if latest.PublishedAt != nil {
		t := latest.PublishedAt.Time
		rec.ReleaseDate = &t
	}
}

func (c *Collector) actions(ctx context.Context, owner, name string, rec *Record) {
	workflows, ok := gh.Call(ctx, c.client, "ListWorkflows", owner+"/"+name,
		func(ctx context.Context) (*github.Workflows, *github.Response, error) {
			return c.client.GH.Actions.ListWorkflows(ctx, owner, name, &github.ListOptions{PerPage: 100})
		})
	if !ok || workflows == nil {
		c.track(name, "actions", "failed to collect workflow information")
		return
	}

	info := ActionsInfo{WorkflowsCount: workflows.GetTotalCount()}
	for _, wf := range workflows.Workflows {
		info.Workflows = append(info.Workflows, WorkflowInfo{
			Name:  wf.GetName(),
			State: wf.GetState(),
			Path:  wf.GetPath(),
		})
	}

	runs, ok := gh.Call(ctx, c.client, "ListRepositoryWorkflowRuns", owner+"/"+name,
		func(ctx context.Context) (*github.WorkflowRuns, *github.Response, error) {
			return c.client.GH.Actions.ListRepositoryWorkflowRuns(ctx, owner, name, &github.ListWorkflowRunsOptions{
				ListOptions: github.ListOptions{PerPage: recentRunsWindow},
			})
		})
	if ok && runs != nil {
		info.RecentRuns = len(runs.WorkflowRuns)
	}

	rec.Actions = info
}

func (c *Collector) branchProtection(ctx context.Context, owner, name, branch string, rec *Record) {
	if branch == "" {
		return
	}
	protection, ok := gh.Call(ctx, c.client, "GetBranchProtection", fmt.Sprintf("%s/%s@%s", owner, name, branch),
		func(ctx context.Context) (*github.Protection, *github.Response, error) {
			return c.client.GH.Repositories.GetBranchProtection(ctx, owner, name, branch)
		})
	if !ok || protection == nil {
		return
	}

	rec.BranchProtection = ProtectionInfo{
		Protected:                  true,
		RequiredStatusChecks:       protection.RequiredStatusChecks != nil,
		EnforceAdmins:              protection.EnforceAdmins != nil && protection.EnforceAdmins.Enabled,
		RequiredPullRequestReviews: protection.RequiredPullRequestReviews != nil,
		Restrictions:               protection.Restrictions != nil,
	}
}

func (c *Collector) latestCommit(ctx context.Context, owner, name string, rec *Record) {
	commits, ok := gh.Call(ctx, c.client, "GetLatestCommit", owner+"/"+name,
		func(ctx context.Context) ([]*github.RepositoryCommit, *github.Response, error) {
			return c.client.GH.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
				ListOptions: github.ListOptions{PerPage: 1},
			})
		})
	if !ok {
		c.track(name, "latest_commit", "failed to fetch latest commit")
		return
	}
	if len(commits) == 0 {
		return
	}

	latest := commits[0]
	info := CommitInfo{
		SHA:     latest.GetSHA(),
		Author:  latest.GetAuthor().GetLogin(),
		Message: truncate(latest.GetCommit().GetMessage(), commitMessageLimit),
	}
	if info.Author == "" {
		info.Author = "unknown"
	}
	if d := latest.GetCommit().GetAuthor().GetDate(); !d.IsZero() {
		t := d.Time
		info.Date = &t
	}
	rec.LatestCommit = &info
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
