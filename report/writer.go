package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/github-tools/github-org-stats/collector"
)

// Writer renders the accumulated records to the requested formats in
// the output directory, naming files by organization scope and run
// timestamp.
type Writer struct {
	outputDir string
	scope     string
	loc       *time.Location
	log       *logrus.Logger
	now       func() time.Time
}

func NewWriter(outputDir, scope, timezone string, log *logrus.Logger) (*Writer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Writer{
		outputDir: outputDir,
		scope:     scope,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}, nil
}

func (w *Writer) filename(ext string) string {
	ts := w.now().Format("20060102_150405")
	return filepath.Join(w.outputDir, fmt.Sprintf("github_org_stats_%s_%s.%s", w.scope, ts, ext))
}

// jsonPayload is the JSON report envelope.
type jsonPayload struct {
	Organizations     []string           `json:"organizations"`
	AnalyzedAt        time.Time          `json:"analyzed_at"`
	TotalRepositories int                `json:"total_repositories"`
	Repositories      []collector.Record `json:"repositories"`
}

// WriteJSON writes the whole run as one JSON document.
func (w *Writer) WriteJSON(orgs []string, records []collector.Record) (string, error) {
	path := w.filename("json")
	payload := jsonPayload{
		Organizations:     orgs,
		AnalyzedAt:        w.now(),
		TotalRepositories: len(records),
		Repositories:      records,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write JSON report: %w", err)
	}
	w.log.Infof("JSON report saved to: %s", path)
	return path, nil
}

// WriteCSV writes the sanitized flat table as CSV.
func (w *Writer) WriteCSV(records []collector.Record) (string, error) {
	rows, columns, err := w.tabulate(records)
	if err != nil {
		return "", err
	}

	path := w.filename("csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create CSV report: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return "", fmt.Errorf("write CSV header: %w", err)
	}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = cellString(SanitizeCell(row[col], w.loc))
		}
		if err := cw.Write(line); err != nil {
			return "", fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush CSV report: %w", err)
	}

	w.log.Infof("CSV report saved to: %s", path)
	return path, nil
}

func (w *Writer) tabulate(records []collector.Record) ([]map[string]any, []string, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		flat, err := Flatten(rec)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, flat)
	}
	return rows, Columns(rows), nil
}

// cellString renders a sanitized cell value for CSV output.
func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
