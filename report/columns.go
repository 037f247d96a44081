package report

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// maxColumnNameLength is the spreadsheet column-name cap.
	maxColumnNameLength = 31

	// columnKeepLength is how much of an oversized name survives
	// before the truncation marker.
	columnKeepLength = 28
)

var (
	invalidColumnChars = regexp.MustCompile(`[^\w\s-]`)
	columnWhitespace   = regexp.MustCompile(`\s+`)
	leadingDigit       = regexp.MustCompile(`^\d`)
)

// ColumnNames sanitizes column names for spreadsheet output and keeps
// the original-to-sanitized mapping, resolving duplicates with a
// numeric suffix.
type ColumnNames struct {
	mapping map[string]string
	used    map[string]bool
}

func NewColumnNames() *ColumnNames {
	return &ColumnNames{
		mapping: make(map[string]string),
		used:    make(map[string]bool),
	}
}

// Sanitize converts one column name: invalid characters and whitespace
// become underscores, a leading digit gains a "col_" prefix, oversized
// names truncate with a marker, and duplicates get "_N" suffixes.
func (c *ColumnNames) Sanitize(name string) string {
	s := invalidColumnChars.ReplaceAllString(name, "_")
	s = columnWhitespace.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	if leadingDigit.MatchString(s) {
		s = "col_" + s
	}
	if len(s) > maxColumnNameLength {
		s = s[:columnKeepLength] + truncationMarker
	}

	base := s
	for n := 1; c.used[s]; n++ {
		s = base + "_" + strconv.Itoa(n)
	}

	c.used[s] = true
	c.mapping[name] = s
	return s
}

// Mapping returns a copy of the original-to-sanitized name table.
func (c *ColumnNames) Mapping() map[string]string {
	out := make(map[string]string, len(c.mapping))
	for k, v := range c.mapping {
		out[k] = v
	}
	return out
}
