package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// prompt prints label and reads one line. EOF reads as an empty answer.
func (cli *commandLine) prompt(label string) string {
	fmt.Fprintln(cli.out, label)
	line, _ := cli.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func isNo(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "n" || a == "no"
}

// latestWorkbook returns the most recently modified .xlsx file of dir.
func latestWorkbook(dir string) (string, time.Time, error) {
	fps, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return "", time.Time{}, err
	}
	var (
		latest  string
		modTime time.Time
	)
	for _, fp := range fps {
		if strings.HasPrefix(filepath.Base(fp), "~$") { // excel lock files
			continue
		}
		fi, err := os.Stat(fp)
		if err != nil || fi.IsDir() {
			continue
		}
		if latest == "" || fi.ModTime().After(modTime) {
			latest, modTime = fp, fi.ModTime()
		}
	}
	if latest == "" {
		return "", time.Time{}, errors.Errorf("no .xlsx file found in %s", dir)
	}
	return latest, modTime, nil
}
