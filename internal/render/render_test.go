package render

import (
	"os"
	"strings"
	"testing"
	"time"

	"briefgen/internal/brief"
	"briefgen/internal/extract"
	"briefgen/internal/serp"
)

func TestClassifySections(t *testing.T) {
	lines := Classify("3. TAG TITOLO SUGGERITI\n\n7. ENTITÀ CHIAVE DA INCLUDERE")

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Kind != LineSection || lines[0].Number != "3" || lines[0].Title != "Tag Titolo Suggeriti" {
		t.Errorf("unexpected first section: %+v", lines[0])
	}
	if lines[1].Kind != LineSection || lines[1].Title != "Entità Chiave Da Includere" {
		t.Errorf("expected non-ASCII uppercase to match, got %+v", lines[1])
	}
}

func TestClassifyMixedCaseIsParagraph(t *testing.T) {
	for _, in := range []string{
		"3. Tag titolo suggeriti",
		"1. ANALISI DELL'INTENTO DI RICERCA", // apostrophe breaks the header shape
	} {
		lines := Classify(in)
		if len(lines) != 1 || lines[0].Kind != LineParagraph {
			t.Errorf("Classify(%q) = %+v, expected single paragraph", in, lines)
		}
	}
}

func TestClassifyBullets(t *testing.T) {
	for _, in := range []string{"- opzione A", "• opzione A", "* opzione A", "-- opzione A"} {
		lines := Classify(in)
		if len(lines) != 1 || lines[0].Kind != LineBullet || lines[0].Text != "opzione A" {
			t.Errorf("Classify(%q) = %+v, expected single bullet %q", in, lines, "opzione A")
		}
	}
}

func TestClassifyOutline(t *testing.T) {
	lines := Classify("H1: Guida completa\nH2: Primo passo\nH3: Dettaglio\nH4: troppo profondo")

	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, want := range []struct {
		kind  LineKind
		level string
	}{
		{LineOutline, "H1"},
		{LineOutline, "H2"},
		{LineOutline, "H3"},
		{LineParagraph, ""},
	} {
		if lines[i].Kind != want.kind || lines[i].Level != want.level {
			t.Errorf("line %d = %+v, expected kind %s level %q", i, lines[i], want.kind, want.level)
		}
	}
}

func TestClassifyParagraphFallback(t *testing.T) {
	lines := Classify("  Un testo libero qualsiasi.  ")
	if len(lines) != 1 || lines[0].Kind != LineParagraph || lines[0].Text != "Un testo libero qualsiasi." {
		t.Errorf("unexpected classification: %+v", lines)
	}
}

func TestClassifyDropsBlankLines(t *testing.T) {
	if lines := Classify("\n   \n\t\n"); len(lines) != 0 {
		t.Errorf("expected no lines for blank input, got %+v", lines)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Content Marketing B2B!": "content-marketing-b2b",
		"caffè  espresso":        "caffè-espresso",
		"foo_bar baz":            "foo-bar-baz",
		"(seo) audit / 2024":     "seo-audit--2024",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestFilenames(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	htmlName, txtName := Filenames("Content Marketing B2B", now)
	if htmlName != "brief_content-marketing-b2b_2024-03-15.html" {
		t.Errorf("unexpected HTML name %q", htmlName)
	}
	if txtName != "brief_content-marketing-b2b_2024-03-15.txt" {
		t.Errorf("unexpected TXT name %q", txtName)
	}
}

func sampleRequest() brief.Request {
	return brief.Request{
		Keyword:  "content marketing B2B",
		Audience: "Marketing manager",
		Goal:     "Generare lead",
		Pages: []brief.CompetitorPage{
			{
				Result:     serp.Result{Position: 1, URL: "https://a.it/guida", Title: "Guida A"},
				PageSignal: extract.PageSignal{WordCount: 1200},
			},
			{
				Result: serp.Result{Position: 2, URL: "https://example.com/a-very-long-path-that-keeps-going-and-going-beyond-fifty"},
			},
		},
	}
}

const sampleBrief = `5. STRUTTURA HEADING CONSIGLIATA
L'utente cerca una guida pratica.
- primo punto
H2: Struttura consigliata`

func TestBuildDocument(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	out, err := BuildDocument(sampleRequest(), sampleBrief, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		"Content Brief: content marketing B2B",
		"Pubblico: Marketing manager",
		"Obiettivo: Generare lead",
		"Pagine analizzate: 2",
		"15 March 2024",
		`href="https://a.it/guida"`,
		">Guida A</a>",
		"~1200",
		`<span class="badge">5</span> Struttura Heading Consigliata`,
		"<p>L&#39;utente cerca una guida pratica.</p>",
		"<li>primo punto</li>",
		`<h4 class="ol-h2">&nbsp;&nbsp;Struttura consigliata</h4>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected document to contain %q", want)
		}
	}

	// Untitled result links the URL truncated to 50 characters.
	if !strings.Contains(doc, ">https://example.com/a-very-long-path-that-keeps-g</a>") {
		t.Error("expected truncated URL label for untitled result")
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	htmlPath, txtPath, err := WriteArtifacts(dir, sampleRequest(), sampleBrief, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(htmlPath, "brief_content-marketing-b2b_2024-03-15.html") {
		t.Errorf("unexpected HTML path %q", htmlPath)
	}
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("reading HTML artifact: %v", err)
	}
	if !strings.Contains(string(html), "<!DOCTYPE html>") {
		t.Error("expected HTML artifact to be a full document")
	}

	txt, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatalf("reading TXT artifact: %v", err)
	}
	if string(txt) != sampleBrief {
		t.Error("expected transcript to be the verbatim model output")
	}
}
