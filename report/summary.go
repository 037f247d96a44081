package report

import "github.com/github-tools/github-org-stats/collector"

// Summary holds the aggregate counts for the summary sheet.
type Summary struct {
	TotalRepositories     int
	PrivateRepositories   int
	ForkedRepositories    int
	ArchivedRepositories  int
	TotalStars            int
	TotalForks            int
	TotalOpenIssues       int
	ReposWithActions      int
	ProtectedRepositories int
}

// Summarize aggregates counts over all collected records.
func Summarize(records []collector.Record) Summary {
	s := Summary{TotalRepositories: len(records)}
	for _, r := range records {
		if r.Private {
			s.PrivateRepositories++
		}
		if r.Fork {
			s.ForkedRepositories++
		}
		if r.Archived {
			s.ArchivedRepositories++
		}
		s.TotalStars += r.StargazersCount
		s.TotalForks += r.ForksCount
		s.TotalOpenIssues += r.OpenIssuesCount
		if r.Actions.WorkflowsCount > 0 {
			s.ReposWithActions++
		}
		if r.BranchProtection.Protected {
			s.ProtectedRepositories++
		}
	}
	return s
}

// OrgBreakdown holds per-organization aggregates for multi-org runs.
type OrgBreakdown struct {
	Organization string
	Repositories int
	Stars        int
	Forks        int
	OpenIssues   int
	Commits      int
}

// SummarizeOrg aggregates counts for one organization's records.
func SummarizeOrg(org string, records []collector.Record) OrgBreakdown {
	b := OrgBreakdown{Organization: org}
	for _, r := range records {
		if r.Organization != org {
			continue
		}
		b.Repositories++
		b.Stars += r.StargazersCount
		b.Forks += r.ForksCount
		b.OpenIssues += r.OpenIssuesCount
		b.Commits += r.TotalCommits
	}
	return b
}
