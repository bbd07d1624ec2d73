package core

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/email
var emailFS embed.FS

var (
	templates tmplCache
	tmplMu    sync.RWMutex
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// ParseEmailTemplates parses the embedded email templates. It must be called before rendering templated messages.
func ParseEmailTemplates(conf *Config, logger Logger) {
	tmplMu.Lock()
	defer tmplMu.Unlock()

	templates = make(tmplCache)
	root := "templates/email"
	entries, err := emailFS.ReadDir(root)
	if err != nil {
		logger.Error(fmt.Sprintf("reading email templates: %v", err), err)
		return
	}

	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			entry = new(tmplCacheEntry)
			templates[name] = entry
		}

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(emailFS, path.Join(root, "_base.txt"), path.Join(root, fname))
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if conf.Debug || conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.text = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(emailFS, path.Join(root, "_base.gohtml"), path.Join(root, fname))
			if err != nil {
				logger.Error(fmt.Sprintf("parsing email template %s: %v", fname, err), err)
				continue
			}
			if conf.Debug || conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry.html = tmpl
		}
	}
}

func (m *EmailMessage) getTemplate() *tmplCacheEntry {
	tmplMu.RLock()
	defer tmplMu.RUnlock()
	return templates[m.TemplateName]
}

// Render fills TextContent and HTMLContent. conf provides the common template context.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	entry := m.getTemplate()
	if entry == nil {
		return fmt.Errorf("email template %q not found", m.TemplateName)
	}
	data := ContextData{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}

	var buff bytes.Buffer
	if entry.text != nil && m.TextContent == "" {
		if err := entry.text.Execute(&buff, data); err != nil {
			return err
		}
		m.TextContent = buff.String()
	}
	if entry.html != nil {
		buff.Reset()
		if err := entry.html.Execute(&buff, data); err != nil {
			return err
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}

	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
