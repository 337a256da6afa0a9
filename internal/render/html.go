// Package render turns formatted markdown into styled HTML and, when a
// browser is available, into PDF.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"papermill/pkg/metadata"
)

// pageTemplate wraps the converted body in a printable page. The styles
// mirror an academic layout: centered title, ruled section headings,
// justified text.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 2.2cm; }
body { font-family: Georgia, "Times New Roman", serif; font-size: 11pt; line-height: 1.55; color: #111; }
h1 { text-align: center; font-size: 20pt; margin-bottom: 1.2em; }
h2 { font-size: 14pt; border-bottom: 1px solid #444; padding-bottom: 0.2em; margin-top: 1.6em; }
p { text-align: justify; margin: 0.6em 0; }
table { border-collapse: collapse; margin: 1em auto; }
th, td { border: 1px solid #666; padding: 0.35em 0.8em; font-size: 10pt; }
th { background: #f0f0f0; }
code { font-family: "Courier New", monospace; font-size: 9.5pt; background: #f6f6f6; padding: 0 0.2em; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ToHTML converts markdown to a complete styled HTML document. The
// provenance block is stripped before conversion so HTML comments from the
// signer do not leak into the page.
func ToHTML(title, content string) (string, error) {
	_, clean := metadata.Extract(content)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(clean), &body); err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("page template failed: %w", err)
	}

	return out.String(), nil
}
