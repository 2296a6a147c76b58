package feedback

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/peerfeedback/core"
)

type (
	// Target names the columns of one assessed student on the form.
	Target struct {
		Code   string             `json:"code" validate:"required,column"`
		Fields [FieldCount]string `json:"fields" validate:"dive,required,column"`
	}

	// FieldMapping ties the form template to the columns of the exported sheet.
	// Columns are spreadsheet letters ("A", "K", "AB").
	FieldMapping struct {
		EvaluatorEmail string   `json:"evaluator_email" validate:"required,column"`
		StudentID      string   `json:"student_id" validate:"omitempty,column"`
		Targets        []Target `json:"targets" validate:"required,min=1,dive"`
	}

	// columns is a FieldMapping resolved to 0-based indexes.
	columns struct {
		evaluator int
		studentID int // -1: none
		targets   []targetColumns
	}

	targetColumns struct {
		code   int
		fields [FieldCount]int
	}
)

// DefaultMapping is the layout of the single-target peer assessment form.
// The submitter enters their own student id in column H.
func DefaultMapping() FieldMapping {
	return FieldMapping{
		EvaluatorEmail: "D",
		StudentID:      "H",
		Targets:        []Target{{Code: "K", Fields: [FieldCount]string{"L", "M", "N"}}},
	}
}

// MappingFromConfig converts the configured mapping.
func MappingFromConfig(conf core.MappingConfig) (FieldMapping, error) {
	m := FieldMapping{
		EvaluatorEmail: core.CleanString(conf.EvaluatorEmail),
		StudentID:      core.CleanString(conf.StudentID),
		Targets:        make([]Target, 0, len(conf.Targets)),
	}
	for i, tc := range conf.Targets {
		if len(tc.Fields) != FieldCount {
			return FieldMapping{}, errors.Errorf("mapping target %d: expected %d feedback columns, got %d", i+1, FieldCount, len(tc.Fields))
		}
		t := Target{Code: core.CleanString(tc.Code)}
		for j, f := range tc.Fields {
			t.Fields[j] = core.CleanString(f)
		}
		m.Targets = append(m.Targets, t)
	}
	return m, nil
}

// Validate checks every column reference.
func (m FieldMapping) Validate(v *core.Validator) error {
	return v.Struct(m)
}

func (m FieldMapping) resolve() (columns, error) {
	cols := columns{studentID: -1, targets: make([]targetColumns, 0, len(m.Targets))}

	var err error
	if cols.evaluator, err = columnIndex(m.EvaluatorEmail); err != nil {
		return columns{}, err
	}
	if m.StudentID != "" {
		if cols.studentID, err = columnIndex(m.StudentID); err != nil {
			return columns{}, err
		}
	}
	if len(m.Targets) == 0 {
		return columns{}, errors.New("field mapping has no targets")
	}
	for _, t := range m.Targets {
		tc := targetColumns{}
		if tc.code, err = columnIndex(t.Code); err != nil {
			return columns{}, err
		}
		for i, f := range t.Fields {
			if tc.fields[i], err = columnIndex(f); err != nil {
				return columns{}, err
			}
		}
		cols.targets = append(cols.targets, tc)
	}
	return cols, nil
}

func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(name))
	if err != nil {
		return 0, errors.Wrapf(err, "field mapping column %q", name)
	}
	return n - 1, nil
}
