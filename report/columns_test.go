package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnNamesSanitize(t *testing.T) {
	t.Run("replaces invalid characters and whitespace", func(t *testing.T) {
		c := NewColumnNames()
		assert.Equal(t, "languages_C", c.Sanitize("languages.C#"))
		assert.Equal(t, "commit_authors_alice", c.Sanitize("commit_authors.alice"))
		assert.Equal(t, "some_column", c.Sanitize("some column"))
	})

	t.Run("leading digit gains a prefix", func(t *testing.T) {
		c := NewColumnNames()
		assert.Equal(t, "col_2024_count", c.Sanitize("2024 count"))
	})

	t.Run("oversized names truncate to the cap", func(t *testing.T) {
		c := NewColumnNames()
		got := c.Sanitize(strings.Repeat("a", 40))
		assert.Len(t, got, 31)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("duplicates get numeric suffixes", func(t *testing.T) {
		c := NewColumnNames()
		first := c.Sanitize("total commits")
		second := c.Sanitize("total.commits")
		third := c.Sanitize("total,commits")
		assert.Equal(t, "total_commits", first)
		assert.Equal(t, "total_commits_1", second)
		assert.Equal(t, "total_commits_2", third)
	})

	t.Run("mapping records the original names", func(t *testing.T) {
		c := NewColumnNames()
		c.Sanitize("languages.C#")
		c.Sanitize("name")
		m := c.Mapping()
		assert.Equal(t, "languages_C", m["languages.C#"])
		assert.Equal(t, "name", m["name"])
	})
}
