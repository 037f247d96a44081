package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/github-tools/github-org-stats/collector"
)

const (
	dataSheet    = "Repository_Data"
	summarySheet = "Summary"
	orgSheet     = "Organizations"
)

// WriteExcel writes the sanitized data sheet, the summary sheet, and —
// in multi-organization mode — a per-organization breakdown sheet.
func (w *Writer) WriteExcel(orgs []string, records []collector.Record) (string, error) {
	rows, columns, err := w.tabulate(records)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return "", fmt.Errorf("rename data sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	names := NewColumnNames()
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = names.Sanitize(col)
	}
	if err := w.writeSheet(f, dataSheet, header, func(yield func(row []any) error) error {
		for _, row := range rows {
			line := make([]any, len(columns))
			for i, col := range columns {
				line[i] = SanitizeCell(row[col], w.loc)
			}
			if err := yield(line); err != nil {
				return err
			}
		}
		return nil
	}, headerStyle); err != nil {
		return "", err
	}

	if err := w.writeSummary(f, records, headerStyle); err != nil {
		return "", err
	}
	if len(orgs) > 1 {
		if err := w.writeOrgBreakdown(f, orgs, records, headerStyle); err != nil {
			return "", err
		}
	}

	path := w.filename("xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save Excel report: %w", err)
	}
	w.log.Infof("Excel report saved to: %s", path)
	return path, nil
}

func (w *Writer) writeSheet(f *excelize.File, sheet string, header []any, rows func(yield func(row []any) error) error, headerStyle int) error {
	if _, err := f.GetSheetIndex(sheet); err != nil {
		return fmt.Errorf("sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	endCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", endCell, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	rowNum := 2
	return rows(func(row []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, rowNum, err)
		}
		rowNum++
		return nil
	})
}

func (w *Writer) writeSummary(f *excelize.File, records []collector.Record, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	s := Summarize(records)
	metrics := []struct {
		name  string
		value int
	}{
		{"Total Repositories", s.TotalRepositories},
		{"Private Repositories", s.PrivateRepositories},
		{"Forked Repositories", s.ForkedRepositories},
		{"Archived Repositories", s.ArchivedRepositories},
		{"Total Stars", s.TotalStars},
		{"Total Forks", s.TotalForks},
		{"Total Open Issues", s.TotalOpenIssues},
		{"Repositories with Actions", s.ReposWithActions},
		{"Protected Repositories", s.ProtectedRepositories},
	}

	return w.writeSheet(f, summarySheet, []any{"Metric", "Value"}, func(yield func(row []any) error) error {
		for _, m := range metrics {
			if err := yield([]any{m.name, m.value}); err != nil {
				return err
			}
		}
		return nil
	}, headerStyle)
}

func (w *Writer) writeOrgBreakdown(f *excelize.File, orgs []string, records []collector.Record, headerStyle int) error {
	if _, err := f.NewSheet(orgSheet); err != nil {
		return fmt.Errorf("create organizations sheet: %w", err)
	}

	header := []any{"Organization", "Repositories", "Stars", "Forks", "Open Issues", "Commits"}
	return w.writeSheet(f, orgSheet, header, func(yield func(row []any) error) error {
		for _, org := range orgs {
			b := SummarizeOrg(org, records)
			row := []any{org, b.Repositories, b.Stars, b.Forks, b.OpenIssues, b.Commits}
			if err := yield(row); err != nil {
				return err
			}
		}
		return nil
	}, headerStyle)
}
