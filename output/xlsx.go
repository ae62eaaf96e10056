// ABOUTME: Writes match results to an outreach spreadsheet in xlsx format
// ABOUTME: One row per identity cluster with confidence, reason, and draft message
package output

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/harperreed/nudge/models"
)

const outreachSheet = "Outreach"

var outreachHeaders = []string{
	"Name", "Email", "Phone", "Company", "Confidence", "Reason",
	"Manual Review", "Sources", "Message",
}

// OutreachRow pairs a match result with an optional pre-generated
// message body for the spreadsheet.
type OutreachRow struct {
	Result  models.MatchResult
	Message string
}

// WriteOutreachSheet writes one workbook with a single Outreach sheet,
// one row per result, ordered as given. Overwrites path if it exists.
func WriteOutreachSheet(path string, rows []OutreachRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", outreachSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range outreachHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(outreachSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(outreachSheet, "A1", "I1", headerStyle)
	}

	for i, row := range rows {
		values := rowValues(row)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(outreachSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	_ = f.SetColWidth(outreachSheet, "A", "A", 24)
	_ = f.SetColWidth(outreachSheet, "B", "B", 30)
	_ = f.SetColWidth(outreachSheet, "I", "I", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func rowValues(row OutreachRow) []any {
	result := &row.Result

	var sources []string
	email, phone, company := "", "", ""
	for _, rec := range []*models.SourceRecord{result.A, result.B} {
		if rec == nil {
			continue
		}
		sources = append(sources, rec.Source)
		if email == "" {
			email = rec.Email
		}
		if phone == "" {
			phone = rec.Phone
		}
		if company == "" {
			company = rec.Company
		}
	}

	review := ""
	if result.ManualReview {
		review = "yes"
	}

	return []any{
		result.DisplayName(), email, phone, company,
		string(result.Confidence), result.Reason,
		review, strings.Join(sources, ", "), row.Message,
	}
}
