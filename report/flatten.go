package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/github-tools/github-org-stats/collector"
)

// leadingColumns fixes the order of the identity columns; everything
// else sorts alphabetically after them.
var leadingColumns = []string{
	"organization",
	"name",
	"full_name",
	"description",
	"private",
	"fork",
	"archived",
	"disabled",
	"created_at",
	"updated_at",
	"pushed_at",
}

// Flatten converts a record into a flat map with nested fields under
// dotted keys. Arrays stay whole; the cell sanitizer serializes them.
func Flatten(rec collector.Record) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", rec.FullName, err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", rec.FullName, err)
	}

	flat := make(map[string]any)
	flattenInto(flat, "", nested)
	return flat, nil
}

func flattenInto(dst map[string]any, prefix string, src map[string]any) {
	for key, value := range src {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			flattenInto(dst, full, sub)
			continue
		}
		dst[full] = value
	}
}

// Columns returns the union of flat keys across all rows in stable
// order: identity columns first, the rest alphabetical.
func Columns(rows []map[string]any) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			seen[key] = true
		}
	}

	var columns []string
	for _, lead := range leadingColumns {
		if seen[lead] {
			columns = append(columns, lead)
			delete(seen, lead)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}
