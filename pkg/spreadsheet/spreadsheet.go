// Package spreadsheet reads attendance uploads and writes attendance exports as .xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// EmailHeader is the header of the column holding attendee emails.
const EmailHeader = "email"

// AttendanceSheet is the name of the exported sheet.
const AttendanceSheet = "Attendance"

// ErrNoEmailColumn is returned when the first sheet has no email header.
var ErrNoEmailColumn = errors.New("spreadsheet: no email column")

// AttendanceRow is one line of an attendance export.
type AttendanceRow struct {
	Name            string
	Email           string
	ParticipantType string
	Attended        bool
}

// ReadEmails returns the non-empty cells under the email header of the first sheet, in order.
func ReadEmails(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoEmailColumn
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoEmailColumn
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), EmailHeader) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoEmailColumn
	}
	emails := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[col]); v != "" {
			emails = append(emails, v)
		}
	}
	return emails, nil
}

// WriteEmails writes a single-column workbook with the email header. Used to build upload templates.
func WriteEmails(w io.Writer, emails []string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetCellStr(sheet, "A1", EmailHeader); err != nil {
		return err
	}
	for i, e := range emails {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, e); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteAttendance writes rows to a workbook with one Attendance sheet.
func WriteAttendance(w io.Writer, title string, rows []AttendanceRow) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), AttendanceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetCellStr(AttendanceSheet, "A1", title); err != nil {
		return err
	}
	header := []any{"Name", "Email", "Participant Type", "Attended"}
	if err := f.SetSheetRow(AttendanceSheet, "A2", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		attended := "No"
		if r.Attended {
			attended = "Yes"
		}
		values := []any{r.Name, r.Email, r.ParticipantType, attended}
		if err := f.SetSheetRow(AttendanceSheet, cell, &values); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
