// Package render turns the model's free-text brief back into a structured,
// styled document. Classification is total: a line that matches no known
// shape is kept as a plain paragraph, never dropped and never an error.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"briefgen/internal/brief"
)

//go:embed templates/brief.html
var briefTemplateHTML string

var briefTemplate = template.Must(template.New("brief").Parse(briefTemplateHTML))

// LineKind classifies one line of the raw brief.
type LineKind string

const (
	LineSection   LineKind = "section"
	LineBullet    LineKind = "bullet"
	LineOutline   LineKind = "outline"
	LineParagraph LineKind = "paragraph"
)

// Line is one classified line of the brief body.
type Line struct {
	Kind   LineKind
	Number string // section number, Kind == LineSection
	Title  string // title-cased section title, Kind == LineSection
	Level  string // H1/H2/H3, Kind == LineOutline
	Text   string
}

// sectionRe matches "<digits>. UPPERCASE TITLE" with uppercase letters,
// spaces and hyphens/dashes only in the title.
var sectionRe = regexp.MustCompile(`^(\d+)\.\s+([\p{Lu}][\p{Lu}\s\-–—]*)$`)

// outlineRe matches the heading-outline lines the prompt asks the model for.
var outlineRe = regexp.MustCompile(`^(H1|H2|H3): (.+)$`)

// Classify splits the raw brief into classified lines. Blank lines are
// dropped; the first matching rule wins; everything else is a paragraph.
func Classify(rawText string) []Line {
	var lines []Line
	for _, raw := range strings.Split(rawText, "\n") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(s); m != nil {
			lines = append(lines, Line{
				Kind:   LineSection,
				Number: m[1],
				Title:  titleCase(strings.TrimSpace(m[2])),
			})
			continue
		}

		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "•") || strings.HasPrefix(s, "*") {
			lines = append(lines, Line{
				Kind: LineBullet,
				Text: strings.TrimSpace(strings.TrimLeft(s, "-•* ")),
			})
			continue
		}

		if m := outlineRe.FindStringSubmatch(s); m != nil {
			lines = append(lines, Line{Kind: LineOutline, Level: m[1], Text: m[2]})
			continue
		}

		lines = append(lines, Line{Kind: LineParagraph, Text: s})
	}
	return lines
}

// titleCase lowercases the string and capitalizes the first letter of each
// word, including after hyphens.
func titleCase(s string) string {
	var b strings.Builder
	prev := ' '
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) && !unicode.IsLetter(prev) {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// tableRow is one competitor line in the document table.
type tableRow struct {
	Position  int
	URL       string
	Label     string
	WordCount int
}

type documentData struct {
	Keyword   string
	Audience  string
	Goal      string
	PageCount int
	Date      string
	Rows      []tableRow
	Body      []Line
}

// BuildDocument renders the self-contained HTML brief document.
func BuildDocument(req brief.Request, rawText string, now time.Time) ([]byte, error) {
	rows := make([]tableRow, 0, len(req.Pages))
	for _, p := range req.Pages {
		label := p.Title
		if label == "" {
			label = truncate(p.URL, 50)
		}
		rows = append(rows, tableRow{
			Position:  p.Position,
			URL:       p.URL,
			Label:     label,
			WordCount: p.WordCount,
		})
	}

	data := documentData{
		Keyword:   req.Keyword,
		Audience:  req.Audience,
		Goal:      req.Goal,
		PageCount: len(req.Pages),
		Date:      now.Format("02 January 2006"),
		Rows:      rows,
		Body:      Classify(rawText),
	}

	var buf bytes.Buffer
	if err := briefTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering brief document: %w", err)
	}
	return buf.Bytes(), nil
}

// slugSpaceRe collapses whitespace and underscores into single hyphens;
// slugStripRe then removes anything that is not a word rune or hyphen.
var (
	slugSpaceRe = regexp.MustCompile(`[\s_]+`)
	slugStripRe = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
)

// Slug derives the deterministic filename slug from a keyword.
func Slug(keyword string) string {
	s := slugSpaceRe.ReplaceAllString(strings.ToLower(keyword), "-")
	return slugStripRe.ReplaceAllString(s, "")
}

// Filenames returns the HTML and TXT artifact names for a keyword and date.
func Filenames(keyword string, now time.Time) (htmlName, txtName string) {
	base := fmt.Sprintf("brief_%s_%s", Slug(keyword), now.Format("2006-01-02"))
	return base + ".html", base + ".txt"
}

// WriteArtifacts writes the styled HTML document and the raw-text transcript
// into dir, creating it if needed, and returns both paths.
func WriteArtifacts(dir string, req brief.Request, rawText string, now time.Time) (htmlPath, txtPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	html, err := BuildDocument(req, rawText, now)
	if err != nil {
		return "", "", err
	}

	htmlName, txtName := Filenames(req.Keyword, now)
	htmlPath = filepath.Join(dir, htmlName)
	txtPath = filepath.Join(dir, txtName)

	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return "", "", fmt.Errorf("writing HTML document: %w", err)
	}
	if err := os.WriteFile(txtPath, []byte(rawText), 0o644); err != nil {
		return "", "", fmt.Errorf("writing transcript: %w", err)
	}
	return htmlPath, txtPath, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
