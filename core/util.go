package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd tries to find the project root: the closest directory, starting at the
// working directory, that holds a "config" directory.
// go-test changes the working directory to the test package being run, so the
// search has to walk up. Falls back to the working directory itself.
func Getwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "config")); err == nil && fi.IsDir() {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd, nil
		}
		currDir = newDir
	}
}

// TutorialDateLayout is the layout dates are typed in, e.g. "Jan 05" or "jan 5".
const TutorialDateLayout = "Jan 2"

// ParseTutorialDate parses a month-day label. Month names are matched case-insensitively.
func ParseTutorialDate(s string) (time.Time, error) {
	return time.Parse(TutorialDateLayout, CleanString(s))
}

// IsShortCode reports whether s, once trimmed, is an integer of any size.
func IsShortCode(s string) bool {
	s = CleanString(s)
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
