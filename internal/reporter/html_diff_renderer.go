package reporter

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/differ"
)

//go:embed templates/*
var templatesFS embed.FS

const diffTemplateName = "diff.html.tmpl"

// DiffPage is the data rendered into the side-by-side diff page.
type DiffPage struct {
	SiteName    string
	SiteURL     string
	GeneratedAt time.Time
	Diff        *differ.DiffResult
}

// HTMLDiffRenderer renders DiffPage values with the embedded template.
type HTMLDiffRenderer struct {
	template *template.Template
}

// NewHTMLDiffRenderer parses the embedded diff template.
func NewHTMLDiffRenderer() (*HTMLDiffRenderer, error) {
	tmpl, err := template.New(diffTemplateName).
		Funcs(templateFunctions()).
		ParseFS(templatesFS, "templates/"+diffTemplateName)
	if err != nil {
		return nil, common.WrapError(err, "failed to parse diff template")
	}
	return &HTMLDiffRenderer{template: tmpl}, nil
}

// Render returns the HTML document for page.
func (r *HTMLDiffRenderer) Render(page DiffPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, page); err != nil {
		return nil, common.WrapError(err, "failed to execute diff template")
	}
	return buf.Bytes(), nil
}

func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return common.FormatTimeOptional(t, common.LayoutRFC3339)
		},
		"lineNo": func(n int) string {
			if n == 0 {
				return ""
			}
			return strconv.Itoa(n)
		},
	}
}
