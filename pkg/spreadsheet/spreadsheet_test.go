package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadEmailsFromTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEmails(&buf, []string{"a@x.com", "  ", "not-an-email", "c@x.com"}))

	emails, err := ReadEmails(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.com", "not-an-email", "c@x.com"}, emails)
}

func TestReadEmailsFindsHeaderColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Name", " Email "}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Ann", "ann@x.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Bo"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	emails, err := ReadEmails(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"ann@x.com"}, emails)
}

func TestReadEmailsWithoutHeader(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellStr(f.GetSheetName(0), "A1", "name"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadEmails(&buf)
	require.ErrorIs(t, err, ErrNoEmailColumn)
}

func TestReadEmailsRejectsGarbage(t *testing.T) {
	_, err := ReadEmails(bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)
}

func TestWriteAttendance(t *testing.T) {
	var buf bytes.Buffer
	rows := []AttendanceRow{
		{Name: "Ann", Email: "ann@x.com", ParticipantType: "internal", Attended: true},
		{Name: "Bo", Email: "bo@x.com", ParticipantType: "external"},
	}
	require.NoError(t, WriteAttendance(&buf, "Robotics Day", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Robotics Day"},
		{"Name", "Email", "Participant Type", "Attended"},
		{"Ann", "ann@x.com", "internal", "Yes"},
		{"Bo", "bo@x.com", "external", "No"},
	}, got)
}
