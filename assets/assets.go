// Package assets embeds the files the binary ships with.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var FS embed.FS

// EmailTemplates returns the embedded email templates directory.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(FS, "templates/email")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
