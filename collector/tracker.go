package collector

import "time"

// ErrorEntry is one recorded collection failure.
type ErrorEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RepoName  string    `json:"repo_name"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
}

// ErrorTracker accumulates collection errors for the end-of-run
// summary. Append-only, single-writer, never persisted.
type ErrorTracker struct {
	entries  []ErrorEntry
	byType   map[string]int
	byRepo   map[string][]ErrorEntry
	now      func() time.Time
}

func NewErrorTracker() *ErrorTracker {
	return &ErrorTracker{
		byType: make(map[string]int),
		byRepo: make(map[string][]ErrorEntry),
		now:    time.Now,
	}
}

func (t *ErrorTracker) Add(repoName, category, message, context string) {
	entry := ErrorEntry{
		Timestamp: t.now(),
		RepoName:  repoName,
		Category:  category,
		Message:   message,
		Context:   context,
	}
	t.entries = append(t.entries, entry)
	t.byType[category]++
	t.byRepo[repoName] = append(t.byRepo[repoName], entry)
}

// ErrorSummary aggregates the run's failures.
type ErrorSummary struct {
	TotalErrors      int            `json:"total_errors"`
	ErrorsByCategory map[string]int `json:"errors_by_category"`
	ReposWithErrors  int            `json:"repos_with_errors"`
	ErrorRate        float64        `json:"error_rate"`
}

func (t *ErrorTracker) Summary() ErrorSummary {
	byCategory := make(map[string]int, len(t.byType))
	for k, v := range t.byType {
		byCategory[k] = v
	}
	repos := len(t.byRepo)
	if repos == 0 {
		repos = 1
	}
	return ErrorSummary{
		TotalErrors:      len(t.entries),
		ErrorsByCategory: byCategory,
		ReposWithErrors:  len(t.byRepo),
		ErrorRate:        float64(len(t.entries)) / float64(repos),
	}
}

// ErrorsForRepo returns the recorded errors for one repository.
func (t *ErrorTracker) ErrorsForRepo(repoName string) []ErrorEntry {
	return t.byRepo[repoName]
}
