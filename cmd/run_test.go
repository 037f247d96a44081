package cmd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/github-tools/github-org-stats/collector"
	"github.com/github-tools/github-org-stats/config"
	"github.com/github-tools/github-org-stats/gh"
	"github.com/github-tools/github-org-stats/ratelimit"
)

func repo(name string, fork, archived bool) *github.Repository {
	return &github.Repository{
		Name:     github.Ptr(name),
		Fork:     github.Ptr(fork),
		Archived: github.Ptr(archived),
	}
}

func TestFilterRepos(t *testing.T) {
	repos := []*github.Repository{
		repo("app", false, false),
		repo("app-fork", true, false),
		repo("legacy", false, true),
		repo("tools", false, false),
	}

	t.Run("forks and archived excluded by default", func(t *testing.T) {
		cfg := config.NewConfig()
		got := filterRepos(cfg, repos)
		assert.Len(t, got, 2)
		assert.Equal(t, "app", got[0].GetName())
		assert.Equal(t, "tools", got[1].GetName())
	})

	t.Run("include flags keep them", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.IncludeForks = true
		cfg.IncludeArchived = true
		assert.Len(t, filterRepos(cfg, repos), 4)
	})

	t.Run("name filter is case-insensitive", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Repos = []string{"TOOLS"}
		got := filterRepos(cfg, repos)
		assert.Len(t, got, 1)
		assert.Equal(t, "tools", got[0].GetName())
	})

	t.Run("max repos caps the selection", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.MaxRepos = 1
		got := filterRepos(cfg, repos)
		assert.Len(t, got, 1)
		assert.Equal(t, "app", got[0].GetName())
	})
}

// newOrgAPI serves a two-repository organization: one normal repo with
// recent commits and one fork. Unhandled paths 404.
func newOrgAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		})
	}

	serve("/orgs/testorg", `{"login": "testorg", "public_repos": 2}`)
	serve("/orgs/testorg/repos", `[
		{"name": "app", "full_name": "testorg/app", "fork": false,
		 "default_branch": "main", "owner": {"login": "testorg"}},
		{"name": "app-fork", "full_name": "testorg/app-fork", "fork": true,
		 "default_branch": "main", "owner": {"login": "testorg"}}
	]`)
	serve("/repos/testorg/app/commits", `[
		{"sha": "abc123", "author": {"login": "alice"},
		 "commit": {"author": {"date": "2026-08-20T10:00:00Z"}, "message": "fix parser"}}
	]`)
	serve("/repos/testorg/app/languages", `{"Go": 1000}`)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunOrg(t *testing.T) {
	server := newOrgAPI(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	ghc := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base

	client, err := gh.New(ghc, log)
	require.NoError(t, err)
	client.Limiter = ratelimit.NewWithRate(10000, 10000)

	t.Run("fork excluded by default", func(t *testing.T) {
		cfg := config.NewConfig()
		tracker := collector.NewErrorTracker()

		records, skipped := runOrg(context.Background(), cfg, log, client, tracker, "testorg")

		require.Len(t, records, 1)
		assert.Equal(t, "app", records[0].Name)
		assert.Equal(t, "testorg", records[0].Organization)
		assert.Equal(t, 1, records[0].TotalCommits)
		assert.Equal(t, "Go", records[0].PrimaryLanguage)
		assert.Zero(t, skipped)
	})

	t.Run("inaccessible org yields no records", func(t *testing.T) {
		cfg := config.NewConfig()
		tracker := collector.NewErrorTracker()

		records, skipped := runOrg(context.Background(), cfg, log, client, tracker, "missing")

		assert.Empty(t, records)
		assert.Zero(t, skipped)
		assert.Equal(t, 1, tracker.Summary().TotalErrors)
	})
}
