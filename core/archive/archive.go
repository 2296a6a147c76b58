// Package archive moves processed form exports out of the inbox.
package archive

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// renameFunc is swapped in tests to force the copy fallback.
var renameFunc = os.Rename

// Archiver moves workbooks to "<Dir>/<Term>-<course>-peer_feedback-<MM-DD><ext>".
type Archiver struct {
	Dir  string
	Term string
}

func New(dir, term string) *Archiver {
	return &Archiver{Dir: dir, Term: term}
}

// Path returns the archive path of src for course and date.
func (a *Archiver) Path(src, course string, date time.Time) string {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".xlsx"
	}
	return filepath.Join(a.Dir, a.Term+"-"+course+"-peer_feedback-"+date.Format("01-02")+ext)
}

// Archive moves src to its archive path and returns that path.
func (a *Archiver) Archive(src, course string, date time.Time) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating archive directory")
	}
	dst := a.Path(src, course, date)
	if err := renameFunc(src, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", errors.Wrap(err, "archiving workbook")
		}
		// different volume: copy then remove
		if err := copyFile(src, dst); err != nil {
			return "", errors.Wrap(err, "archiving workbook")
		}
		if err := os.Remove(src); err != nil {
			return "", errors.Wrap(err, "removing archived workbook")
		}
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
