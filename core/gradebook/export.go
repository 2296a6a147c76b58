// Package gradebook writes participation grades in the LMS (D2L) grade import format.
package gradebook

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/peerfeedback/core/feedback"
)

const (
	idHeader  = "OrgDefinedId"
	eolHeader = "End-of-Line Indicator"
)

// Path returns where the grades of course for dateLabel are written.
func Path(dir, course, dateLabel string) string {
	return filepath.Join(dir, course+"-"+dateLabel+"-upload.csv")
}

// Export writes one row per id to Path(dir, course, dateLabel), replacing any existing file.
func Export(dir string, participation feedback.Participation, ids []string, dateLabel, course string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating gradebook directory")
	}
	fp := Path(dir, course, dateLabel)
	f, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating grade file")
	}
	if err := Write(f, participation, ids, dateLabel); err != nil {
		_ = f.Close()
		return "", errors.Wrapf(err, "writing %s", fp)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", fp)
	}
	return fp, nil
}

// Write writes the header (CRLF terminated) then "<id>,<grade>," lines (LF terminated).
// The trailing empty field is the end-of-line indicator the import expects.
func Write(w io.Writer, participation feedback.Participation, ids []string, dateLabel string) error {
	bw := bufio.NewWriter(w)

	header := csv.NewWriter(bw)
	header.UseCRLF = true
	if err := header.Write([]string{idHeader, dateLabel + " Points Grade", eolHeader}); err != nil {
		return err
	}
	header.Flush()
	if err := header.Error(); err != nil {
		return err
	}

	rows := csv.NewWriter(bw)
	for _, id := range ids {
		if err := rows.Write([]string{id, strconv.Itoa(participation[id]), ""}); err != nil {
			return err
		}
	}
	rows.Flush()
	if err := rows.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
