// Package csvroster loads class lists exported by the registrar as ISO-8859-1 CSV files.
package csvroster

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/roster"
)

// column offsets in the class list
const (
	colID    = 0
	colEmail = 2
	colCode  = 3
	minCols  = colCode + 1
)

type repository struct {
	dir string
}

var _ roster.Repository = (*repository)(nil)

// NewRepository reads class lists named "<term>-<course>-fullclasslist.csv" in dir.
func NewRepository(dir string) roster.Repository {
	return &repository{dir: dir}
}

// Path returns the class list path for term and course.
func Path(dir, term, course string) string {
	return filepath.Join(dir, term+"-"+course+"-fullclasslist.csv")
}

func (repo *repository) Load(ctx context.Context, term, course string) (*roster.Roster, error) {
	fp := Path(repo.dir, term, course)
	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(roster.ErrNotFound, "%s", fp)
		}
		return nil, errors.Wrapf(err, "opening class list")
	}
	defer f.Close()

	entries, err := Decode(ctx, f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading class list %s", fp)
	}
	return roster.New(entries)
}

// Decode reads class list entries from ISO-8859-1 encoded CSV. The header row is skipped.
func Decode(ctx context.Context, r io.Reader) ([]roster.Entry, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1

	// skip the column headers in the first row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]roster.Entry, 0)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < minCols {
			return nil, errors.Errorf("line %d: expected at least %d columns, got %d", line, minCols, len(row))
		}
		entry := roster.Entry{StudentID: row[colID], Email: row[colEmail], ShortCode: row[colCode]}
		switch {
		case isBlank(entry.StudentID):
			return nil, errors.Errorf("line %d: missing student id", line)
		case isBlank(entry.Email):
			return nil, errors.Errorf("line %d: missing email for student %s", line, entry.StudentID)
		case isBlank(entry.ShortCode):
			return nil, errors.Errorf("line %d: missing student code for student %s", line, entry.StudentID)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func isBlank(s string) bool { return core.CleanString(s) == "" }
