// Package report renders collected repository records to JSON, CSV,
// and multi-sheet XLSX reports, sanitizing values for spreadsheet
// consumption on the way out.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/github-tools/github-org-stats/collector"
)

// MaxCellLength is the spreadsheet cell-size limit.
const MaxCellLength = 32767

// truncationMarker terminates any value cut at a length limit.
const truncationMarker = "..."

// languageSubstitutions rewrites language names whose reserved
// characters upset spreadsheet tooling. Exact, case-sensitive matches
// only; anything else passes through unchanged.
var languageSubstitutions = map[string]string{
	"C#":  "CSharp",
	"C++": "CPlusPlus",
	"F#":  "FSharp",
}

// SanitizeLanguageNames rewrites reserved language names in both the
// byte map and the primary-language field of each record. The input
// slice is left untouched; byte totals are preserved.
func SanitizeLanguageNames(records []collector.Record) []collector.Record {
	out := make([]collector.Record, len(records))
	for i, rec := range records {
		if rec.Languages != nil {
			langs := make(map[string]int, len(rec.Languages))
			for lang, bytes := range rec.Languages {
				if repl, ok := languageSubstitutions[lang]; ok {
					lang = repl
				}
				langs[lang] += bytes
			}
			rec.Languages = langs
		}
		if repl, ok := languageSubstitutions[rec.PrimaryLanguage]; ok {
			rec.PrimaryLanguage = repl
		}
		out[i] = rec
	}
	return out
}

// SanitizeCell normalizes one value for a spreadsheet cell: nil becomes
// the empty string, timestamps become ISO-8601 in loc, nested
// structures become truncated JSON text, and non-finite numbers become
// the empty string. Flattened records carry their timestamps as RFC3339
// strings, so those are re-parsed and shifted into loc too.
func SanitizeCell(value any, loc *time.Location) any {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.In(loc).Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.In(loc).Format(time.RFC3339)
	case bool, int, int64:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.In(loc).Format(time.RFC3339)
		}
		return truncateCell(v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return truncateCell(fmt.Sprint(v))
		}
		return truncateCell(string(data))
	default:
		return truncateCell(fmt.Sprint(v))
	}
}

func truncateCell(s string) string {
	if len(s) <= MaxCellLength {
		return s
	}
	return s[:MaxCellLength-len(truncationMarker)] + truncationMarker
}
