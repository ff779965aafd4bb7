package brief

import (
	"fmt"
	"strings"

	"briefgen/internal/extract"
	"briefgen/internal/serp"
)

// CompetitorPage is one ranked result merged with its extracted signals.
type CompetitorPage struct {
	serp.Result
	extract.PageSignal
}

// Request carries everything the synthesizer needs for one brief.
// Pages are ordered by position ascending.
type Request struct {
	Keyword  string
	Audience string
	Goal     string
	Pages    []CompetitorPage
}

// Validate checks the request before any network call is made.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("keyword is required")
	}
	return nil
}

// Summarize folds the competitor pages into the textual summary the model is
// conditioned on. The exact field order and indentation are a contract with
// the prompt template: changing them changes model output.
func Summarize(pages []CompetitorPage) string {
	var lines []string
	for _, p := range pages {
		lines = append(lines, fmt.Sprintf("\n--- Posizione %d ---", p.Position))
		lines = append(lines, "URL: "+p.URL)
		lines = append(lines, "Titolo SERP: "+p.Title)
		lines = append(lines, "Snippet: "+p.Snippet)
		lines = append(lines, "Title tag: "+p.PageTitle)
		lines = append(lines, fmt.Sprintf("Parole stimate: ~%d", p.WordCount))
		lines = append(lines, "Heading:")
		for _, h := range p.Headings {
			lines = append(lines, headingIndent(h.Level)+h.Level+": "+h.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func headingIndent(level string) string {
	switch level {
	case "H2":
		return "  "
	case "H3":
		return "      "
	default:
		return ""
	}
}
