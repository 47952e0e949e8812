// Package render converts generated markdown into display-ready HTML.
package render

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
)

// HTML renders markdown to HTML. Raw HTML in the input is dropped, so model
// output cannot inject markup.
func HTML(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}

	// A parser carries state and must not be reused across documents.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
	})

	return strings.TrimSpace(string(markdown.ToHTML([]byte(md), p, r)))
}

// Result renders a generation result: markdown for generated text, an escaped
// error paragraph for a failure message.
func Result(res ai.Result) string {
	if res.OK {
		return HTML(res.Text)
	}
	if res.Message == "" {
		return ""
	}
	return `<p class="generation-error"><b>Error:</b> ` + html.EscapeString(res.Message) + `</p>`
}
