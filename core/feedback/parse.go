package feedback

import (
	"github.com/trezcool/peerfeedback/core"
)

// Parse turns the sheet's data rows into submissions, following the mapping.
// The header row and fully blank rows are skipped.
func Parse(sheet Sheet, mapping FieldMapping) ([]Submission, error) {
	cols, err := mapping.resolve()
	if err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		sub := Submission{
			Row:            i + 1,
			EvaluatorEmail: core.CleanString(cell(row, cols.evaluator)),
			Targets:        make([]TargetValue, 0, len(cols.targets)),
		}
		if cols.studentID >= 0 {
			sub.StudentID = core.CleanString(cell(row, cols.studentID))
		}
		for _, tc := range cols.targets {
			tv := TargetValue{Code: cell(row, tc.code)}
			for j, idx := range tc.fields {
				tv.Fields[j] = cell(row, idx)
			}
			sub.Targets = append(sub.Targets, tv)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if core.CleanString(c) != "" {
			return false
		}
	}
	return true
}
