package collector

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

	"github.com/github-tools/github-org-stats/gh"
	"github.com/github-tools/github-org-stats/ratelimit"
)

// newMockAPI serves a canned single-repository GitHub API. Unhandled
// paths 404, which the collector treats as absent data.
func newMockAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(pattern, body string) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		})
	}

	serve("/repos/myorg/app/commits", `[
		{"sha": "abc123", "author": {"login": "alice"},
		 "commit": {"author": {"date": "2026-08-20T10:00:00Z"}, "message": "fix parser"}},
		{"sha": "def456", "author": {"login": "dependabot[bot]"},
		 "commit": {"author": {"date": "2026-08-21T10:00:00Z"}, "message": "bump deps"}}
	]`)
	serve("/repos/myorg/app/languages", `{"Go": 1000, "Shell": 100}`)
	serve("/repos/myorg/app/topics", `{"names": ["cli", "stats"]}`)
	serve("/repos/myorg/app/contributors", `[
		{"login": "alice", "contributions": 30},
		{"login": "dependabot[bot]", "contributions": 5}
	]`)
	serve("/repos/myorg/app/branches", `[{"name": "main"}, {"name": "dev"}]`)
	serve("/repos/myorg/app/tags", `[{"name": "v1.0.0"}]`)
	serve("/repos/myorg/app/releases", `[
		{"tag_name": "v1.0.0", "html_url": "https://github.com/myorg/app/releases/v1.0.0",
		 "published_at": "2026-08-01T00:00:00Z"}
	]`)
	serve("/repos/myorg/app/actions/workflows", `{"total_count": 1, "workflows": [
		{"name": "ci", "state": "active", "path": ".github/workflows/ci.yml"}
	]}`)
	serve("/repos/myorg/app/actions/runs", `{"total_count": 2, "workflow_runs": [{"id": 1}, {"id": 2}]}`)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newMockClient(t *testing.T, server *httptest.Server) *gh.Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ghc := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base

	client, err := gh.New(ghc, log)
	require.NoError(t, err)
	client.Limiter = ratelimit.NewWithRate(10000, 10000)
	return client
}

func TestCollect(t *testing.T) {
	server := newMockAPI(t)
	client := newMockClient(t, server)
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := &github.Repository{
		Name:          github.Ptr("app"),
		FullName:      github.Ptr("myorg/app"),
		Owner:         &github.User{Login: github.Ptr("myorg")},
		DefaultBranch: github.Ptr("main"),
		Description:   github.Ptr("demo"),
	}

	t.Run("bots excluded", func(t *testing.T) {
		tracker := NewErrorTracker()
		coll := New(client, log, tracker, 30, true)
		rec := coll.Collect(context.Background(), "myorg", repo)

		assert.Equal(t, "myorg", rec.Organization)
		assert.Equal(t, "myorg/app", rec.FullName)

		assert.Equal(t, 1, rec.TotalCommits)
		assert.Equal(t, 1, rec.UniqueAuthors)
		assert.Equal(t, map[string]int{"alice": 1}, rec.CommitAuthors)
		assert.Equal(t, map[string]int{"2026-08-20": 1}, rec.CommitsByDay)

		assert.Equal(t, map[string]int{"Go": 1000, "Shell": 100}, rec.Languages)
		assert.Equal(t, 1100, rec.TotalCodeBytes)
		assert.Equal(t, "Go", rec.PrimaryLanguage)

		assert.Equal(t, []string{"cli", "stats"}, rec.Topics)

		require.Len(t, rec.Contributors, 1)
		assert.Equal(t, "alice", rec.Contributors[0].Login)
		assert.Equal(t, 1, rec.ContributorsCount)

		assert.Equal(t, 2, rec.BranchesCount)
		assert.Equal(t, 1, rec.TagsCount)

		assert.Equal(t, "v1.0.0", rec.LatestRelease)
		assert.Equal(t, 1, rec.TotalReleases)
		require.NotNil(t, rec.ReleaseDate)

		assert.Equal(t, 1, rec.Actions.WorkflowsCount)
		assert.Equal(t, 2, rec.Actions.RecentRuns)
		require.Len(t, rec.Actions.Workflows, 1)
		assert.Equal(t, "ci", rec.Actions.Workflows[0].Name)

		// Branch protection and manifests 404 on the mock server.
		assert.False(t, rec.BranchProtection.Protected)
		assert.Nil(t, rec.Dependencies)
		assert.Empty(t, rec.Submodules)

		require.NotNil(t, rec.LatestCommit)
		assert.Equal(t, "abc123", rec.LatestCommit.SHA)
		assert.Equal(t, "alice", rec.LatestCommit.Author)
		assert.Equal(t, "fix parser", rec.LatestCommit.Message)

		assert.False(t, rec.AnalyzedAt.IsZero())
		assert.Zero(t, tracker.Summary().TotalErrors, "absent data is not an error")
	})

	t.Run("bots included", func(t *testing.T) {
		coll := New(client, log, nil, 30, false)
		rec := coll.Collect(context.Background(), "myorg", repo)

		assert.Equal(t, 2, rec.TotalCommits)
		assert.Equal(t, 2, rec.UniqueAuthors)
		assert.Len(t, rec.Contributors, 2)
	})
}
