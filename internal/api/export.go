package api

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/abhisek/studyplan/internal/store"
)

// planMarkdown renders the conversation as a markdown document. The first
// turn is the generated prompt and is left out.
func planMarkdown(p *store.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Study plan #%d\n\n", p.ID)
	fmt.Fprintf(&b, "Starting %s.\n\n", p.StartDate)

	for i, t := range p.Conversation {
		if i == 0 {
			continue
		}
		if t.Role == "user" {
			b.WriteString("---\n\n**You:** ")
			b.WriteString(t.Content)
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderPlanHTML converts the plan to a standalone HTML page. Raw HTML in
// model output is skipped and only safe link schemes become hrefs.
func renderPlanHTML(p *store.Plan) []byte {
	parse := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := parse.Parse([]byte(planMarkdown(p)))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("Study plan #%d", p.ID),
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML | html.Safelink | html.NofollowLinks,
	})
	return markdown.Render(doc, renderer)
}
