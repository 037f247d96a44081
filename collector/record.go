package collector

import "time"

// Record is the collected statistics snapshot for one repository.
// Built once during collection, then immutable input to the sanitizer
// and the report writers.
type Record struct {
	Organization string `json:"organization"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Description  string `json:"description"`
	Private      bool   `json:"private"`
	Fork         bool   `json:"fork"`
	Archived     bool   `json:"archived"`
	Disabled     bool   `json:"disabled"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	PushedAt  *time.Time `json:"pushed_at"`

	Size            int    `json:"size"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	DefaultBranch   string `json:"default_branch"`
	Language        string `json:"language"`
	HasIssues       bool   `json:"has_issues"`
	HasProjects     bool   `json:"has_projects"`
	HasWiki         bool   `json:"has_wiki"`
	HasPages        bool   `json:"has_pages"`
	HasDownloads    bool   `json:"has_downloads"`
	License         string `json:"license"`
	CloneURL        string `json:"clone_url"`
	HTMLURL         string `json:"html_url"`

	TotalCommits  int            `json:"total_commits"`
	UniqueAuthors int            `json:"unique_authors"`
	CommitAuthors map[string]int `json:"commit_authors,omitempty"`
	CommitsByDay  map[string]int `json:"commits_by_day,omitempty"`

	Languages       map[string]int `json:"languages,omitempty"`
	TotalCodeBytes  int            `json:"total_code_bytes"`
	PrimaryLanguage string         `json:"primary_language,omitempty"`

	Topics            []string      `json:"topics,omitempty"`
	Contributors      []Contributor `json:"contributors,omitempty"`
	ContributorsCount int           `json:"contributors_count"`

	BranchesCount int `json:"branches_count"`
	TagsCount     int `json:"tags_count"`

	LatestRelease string     `json:"latest_release,omitempty"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	ReleaseURL    string     `json:"release_url,omitempty"`
	TotalReleases int        `json:"total_releases"`

	Actions          ActionsInfo         `json:"github_actions"`
	BranchProtection ProtectionInfo      `json:"branch_protection"`
	LatestCommit     *CommitInfo         `json:"latest_commit,omitempty"`
	Dependencies     map[string][]string `json:"dependencies,omitempty"`
	Submodules       []Submodule         `json:"submodules,omitempty"`
	SubmodulesCount  int                 `json:"submodules_count"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Contributor is one entry of the top-contributors list.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	HTMLURL       string `json:"html_url,omitempty"`
}

// ActionsInfo summarizes the repository's GitHub Actions usage.
type ActionsInfo struct {
	WorkflowsCount int            `json:"workflows_count"`
	RecentRuns     int            `json:"recent_runs"`
	Workflows      []WorkflowInfo `json:"workflows,omitempty"`
}

type WorkflowInfo struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Path  string `json:"path"`
}

// ProtectionInfo carries the default-branch protection flags. An
// unprotected (or inaccessible) branch is the zero value.
type ProtectionInfo struct {
	Protected                  bool `json:"protected"`
	RequiredStatusChecks       bool `json:"required_status_checks"`
	EnforceAdmins              bool `json:"enforce_admins"`
	RequiredPullRequestReviews bool `json:"required_pull_request_reviews"`
	Restrictions               bool `json:"restrictions"`
}

// CommitInfo summarizes the repository's most recent commit.
type CommitInfo struct {
	SHA     string     `json:"sha"`
	Author  string     `json:"author"`
	Date    *time.Time `json:"date,omitempty"`
	Message string     `json:"message"`
}

// Submodule is one parsed entry of a .gitmodules file.
type Submodule struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}
