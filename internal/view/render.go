package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	appLog "partyplanner/internal/log"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// mdRenderer renders party descriptions. Raw HTML in the input is escaped
// (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageTmpl = template.Must(
	template.New("page.html.tmpl").
		Funcs(template.FuncMap{
			"markdown":    markdown,
			"placeholder": func() string { return Placeholder },
		}).
		ParseFS(templateFS, "templates/page.html.tmpl"),
)

// RenderOptions carries per-request values that are not part of the page model.
type RenderOptions struct {
	// CSRFField is the hidden input emitted inside every form.
	CSRFField template.HTML
}

// Render writes page as a complete HTML document.
func Render(w io.Writer, page Page, opts RenderOptions) error {
	// Buffer so a template error never leaves a half-written response.
	var buf bytes.Buffer
	data := struct {
		Page
		CSRFField template.HTML
	}{Page: page, CSRFField: opts.CSRFField}
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		appLog.Error("markdown render failed; falling back to escaped text", err)
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}
