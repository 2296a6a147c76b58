// Package xlsxbook reads form exports saved as .xlsx workbooks.
package xlsxbook

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/peerfeedback/core/feedback"
)

type reader struct{}

var _ feedback.WorkbookReader = (*reader)(nil)

func NewReader() feedback.WorkbookReader {
	return &reader{}
}

func (reader) ReadSheet(ctx context.Context, path string) (feedback.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return feedback.Sheet{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return feedback.Sheet{}, errors.Wrap(err, "opening workbook")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return feedback.Sheet{}, errors.Wrapf(err, "opening workbook %s", path)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		return feedback.Sheet{}, errors.Errorf("workbook %s has no active sheet", path)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return feedback.Sheet{}, errors.Wrapf(err, "reading sheet %q of %s", name, path)
	}
	return feedback.Sheet{Name: name, Rows: rows}, nil
}
