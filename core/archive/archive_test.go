package archive

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fp, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(fp, []byte(content), 0o644))
}

func TestArchiver_Path(t *testing.T) {
	a := New("/data/archive", "2024s")
	date := time.Date(0, time.January, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("/data/archive", "2024s-212-peer_feedback-01-05.xlsx"), a.Path("/in/form.xlsx", "212", date))
	assert.Equal(t, filepath.Join("/data/archive", "2024s-212-peer_feedback-01-05.xlsx"), a.Path("/in/form", "212", date))
	assert.Equal(t, filepath.Join("/data/archive", "2024s-212-peer_feedback-01-05.xlsm"), a.Path("/in/form.xlsm", "212", date))
}

func TestArchiver_Archive(t *testing.T) {
	date := time.Date(0, time.October, 19, 0, 0, 0, 0, time.UTC)

	t.Run("rename", func(t *testing.T) {
		tmp := t.TempDir()
		src := filepath.Join(tmp, "form.xlsx")
		writeFile(t, src, "workbook")

		a := New(filepath.Join(tmp, "archive"), "2024s")
		dst, err := a.Archive(src, "212", date)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmp, "archive", "2024s-212-peer_feedback-10-19.xlsx"), dst)

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "workbook", string(data))
		assert.NoFileExists(t, src)
	})

	t.Run("cross device", func(t *testing.T) {
		renameFunc = func(oldpath, newpath string) error {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
		}
		defer func() { renameFunc = os.Rename }()

		tmp := t.TempDir()
		src := filepath.Join(tmp, "form.xlsx")
		writeFile(t, src, "workbook")

		a := New(filepath.Join(tmp, "archive"), "2024s")
		dst, err := a.Archive(src, "212", date)
		require.NoError(t, err)

		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "workbook", string(data))
		assert.NoFileExists(t, src)
	})

	t.Run("other rename errors", func(t *testing.T) {
		tmp := t.TempDir()
		a := New(filepath.Join(tmp, "archive"), "2024s")
		_, err := a.Archive(filepath.Join(tmp, "missing.xlsx"), "212", date)
		assert.Error(t, err)
	})
}
