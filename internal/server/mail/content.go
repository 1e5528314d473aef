package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body>
{{.Content}}
<p style="color:#888">Sent by GophReddit</p>
</body>
</html>
`

// ContentBuilder renders markdown message text into an HTML mail body.
type ContentBuilder struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

func NewContentBuilder() *ContentBuilder {
	return &ContentBuilder{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		tmpl: template.Must(template.New("mail").Parse(layout)),
	}
}

// Build renders message. Raw HTML in message is omitted by goldmark's
// default renderer.
func (b *ContentBuilder) Build(subject, message string) (string, error) {
	var content bytes.Buffer
	if err := b.md.Convert([]byte(message), &content); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	err := b.tmpl.Execute(&out, struct {
		Subject string
		Content template.HTML
	}{
		Subject: subject,
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return out.String(), nil
}

// Compose builds an Email for recipient from markdown text.
func (b *ContentBuilder) Compose(recipient, subject, message string) (Email, error) {
	body, err := b.Build(subject, message)
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: subject, Recipient: recipient, Body: body}, nil
}
