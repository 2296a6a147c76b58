package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/trezcool/peerfeedback/core/roster"
)

// FormHeader is the header row of the peer assessment form export.
var FormHeader = []string{
	"ID", "Start time", "Completion time", "Email", "Name", "Q1", "Q2", "Q3", "Q4", "Q5",
	"Student code", "Score", "Participation", "Comments",
}

// FormRow builds a data row of the default layout: evaluator email in D,
// code in K, feedback in L, M and N.
func FormRow(evaluator, code, score, participation, comment string) []string {
	row := make([]string, 14)
	row[0] = "1"
	row[3] = evaluator
	row[10] = code
	row[11] = score
	row[12] = participation
	row[13] = comment
	return row
}

// WriteClassList writes an ISO-8859-1 class list named "<term>-<course>-fullclasslist.csv" in dir.
func WriteClassList(t *testing.T, dir, term, course string, entries ...roster.Entry) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("OrgDefinedId,Name,Email,Code\r\n")
	for _, e := range entries {
		b.WriteString(e.StudentID + ",Student " + e.StudentID + "," + e.Email + "," + e.ShortCode + "\r\n")
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().String(b.String())
	if err != nil {
		t.Fatalf("WriteClassList() encoding failed: %v", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("WriteClassList() failed: %v", err)
	}
	fp := filepath.Join(dir, term+"-"+course+"-fullclasslist.csv")
	if err := os.WriteFile(fp, []byte(encoded), 0o644); err != nil {
		t.Fatalf("WriteClassList() failed: %v", err)
	}
	return fp
}

// WriteWorkbook saves rows (header included) to the first sheet of a new workbook at dir/name.
func WriteWorkbook(t *testing.T, dir, name string, rows ...[]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("WriteWorkbook() failed: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("WriteWorkbook() failed: %v", err)
		}
	}

	fp := filepath.Join(dir, name)
	if err := f.SaveAs(fp); err != nil {
		t.Fatalf("WriteWorkbook() failed: %v", err)
	}
	return fp
}
