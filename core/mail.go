package core

import (
	"bytes"
	"context"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

const (
	htmlExt = ".gohtml"
	textExt = ".txt"

	baseName = "_base"
)

var funcs = map[string]interface{}{
	"inc": func(i int) int { return i + 1 },
}

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages one after the other and stops at the first failure.
		SendMessages(ctx context.Context, messages ...*EmailMessage) error
	}

	// Templates is the rendering context for email messages.
	// Each template is parsed together with its "_base" layout.
	Templates struct {
		appName string
		html    map[string]*htmltmpl.Template
		text    map[string]*texttmpl.Template
	}
)

// LoadTemplates parses every "<name>.gohtml" and "<name>.txt" found at the root of fsys.
// Files starting with "_" are layouts. strict makes missing keys an execution error.
func LoadTemplates(fsys fs.FS, appName string, strict bool) (*Templates, error) {
	tmpls := &Templates{
		appName: appName,
		html:    make(map[string]*htmltmpl.Template),
		text:    make(map[string]*texttmpl.Template),
	}

	fps, err := fs.Glob(fsys, "*")
	if err != nil {
		return nil, errors.Wrap(err, "core.LoadTemplates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == textExt || ext == htmlExt) {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		if ext == textExt {
			tmpl, err := texttmpl.New(baseName + textExt).Funcs(texttmpl.FuncMap(funcs)).ParseFS(fsys, baseName+textExt, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "core.LoadTemplates(%s)", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.text[name] = tmpl
		} else {
			tmpl, err := htmltmpl.New(baseName + htmlExt).Funcs(htmltmpl.FuncMap(funcs)).ParseFS(fsys, baseName+htmlExt, fp)
			if err != nil {
				return nil, errors.Wrapf(err, "core.LoadTemplates(%s)", fp)
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			tmpls.html[name] = tmpl
		}
	}
	if len(tmpls.html) == 0 && len(tmpls.text) == 0 {
		return nil, errors.New("core.LoadTemplates: no templates found")
	}
	return tmpls, nil
}

// Has reports whether a template (html or text) is registered under name.
func (t *Templates) Has(name string) bool {
	_, okHTML := t.html[name]
	_, okText := t.text[name]
	return okHTML || okText
}

func (m *EmailMessage) getContextData(appName string) ContextData {
	return ContextData{
		AppName: appName,
		Data:    m.TemplateData,
	}
}

func (m *EmailMessage) renderText(t *Templates) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmpl, ok := t.text[m.TemplateName]
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(t.appName)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(t *Templates) error {
	if m.TemplateName == "" {
		return nil
	}

	tmpl, ok := t.html[m.TemplateName]
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(t.appName)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from the message's template.
func (m *EmailMessage) Render(t *Templates) error {
	if m.TemplateName != "" {
		if t == nil || !t.Has(m.TemplateName) {
			return errors.Errorf("email template %q not found", m.TemplateName)
		}
	}
	if err := m.renderText(t); err != nil {
		return errors.Wrapf(err, "rendering %s%s", m.TemplateName, textExt)
	}
	if err := m.renderHTML(t); err != nil {
		return errors.Wrapf(err, "rendering %s%s", m.TemplateName, htmlExt)
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipients returns the bare addresses of To, Cc and Bcc.
func (m *EmailMessage) Recipients() []string {
	all := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	for _, lst := range [][]mail.Address{m.To, m.Cc, m.Bcc} {
		for _, a := range lst {
			all = append(all, a.Address)
		}
	}
	return all
}
