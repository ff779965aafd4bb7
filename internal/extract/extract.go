// Package extract derives structural signals from a single competitor page.
package extract

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const excerptRunes = 280

// Heading is one H1/H2/H3 element in document order.
type Heading struct {
	Level string // "H1", "H2" or "H3"
	Text  string
}

// PageSignal holds the structural features of one fetched page.
// The zero value is the placeholder for a page that could not be fetched
// or parsed; that is a valid terminal state, not an error.
type PageSignal struct {
	PageTitle       string
	MetaDescription string
	Headings        []Heading
	WordCount       int
	Excerpt         string
}

// IsZero reports whether the signal is the empty placeholder.
func (s PageSignal) IsZero() bool {
	return s.PageTitle == "" && s.MetaDescription == "" &&
		len(s.Headings) == 0 && s.WordCount == 0 && s.Excerpt == ""
}

// Extractor fetches competitor pages over HTTP and extracts signals.
type Extractor struct {
	client    *http.Client
	userAgent string
}

// NewExtractor creates a new page extractor.
func NewExtractor(timeout time.Duration, userAgent string) *Extractor {
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; ContentBriefBot/1.0)"
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Extract fetches one URL and returns its signals. It never fails: competitor
// sites routinely block automated fetches, so any network or parse problem
// yields the empty placeholder signal.
func (e *Extractor) Extract(pageURL string) PageSignal {
	body, ok := e.fetch(pageURL)
	if !ok {
		return PageSignal{}
	}
	return Parse(body, pageURL)
}

func (e *Extractor) fetch(pageURL string) ([]byte, bool) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("fetch failed for %s: %v", pageURL, err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("fetch for %s returned %d", pageURL, resp.StatusCode)
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Parse extracts signals from raw HTML. Exported separately so signals can be
// derived from already-fetched documents in tests.
func Parse(body []byte, pageURL string) PageSignal {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageSignal{}
	}

	var sig PageSignal

	sig.PageTitle = strings.TrimSpace(doc.Find("title").First().Text())

	// First meta tag whose name contains "description", case-insensitive.
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if strings.Contains(strings.ToLower(name), "description") {
			content, _ := s.Attr("content")
			sig.MetaDescription = strings.TrimSpace(content)
			return false
		}
		return true
	})

	// H1/H2/H3 in document order; interleaving encodes the page structure.
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := collapseSpace(s.Text())
		if text == "" {
			return
		}
		sig.Headings = append(sig.Headings, Heading{
			Level: strings.ToUpper(goquery.NodeName(s)),
			Text:  text,
		})
	})

	// Whitespace-token count over paragraph and list-item elements; an
	// approximation of prose volume, not a linguistic word count.
	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		sig.WordCount += len(strings.Fields(s.Text()))
	})

	sig.Excerpt = readableExcerpt(body, pageURL)

	return sig
}

// readableExcerpt pulls a short main-content excerpt for the run ledger.
// It is never fed to the model.
func readableExcerpt(body []byte, pageURL string) string {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return ""
	}

	text := collapseSpace(article.TextContent)
	runes := []rune(text)
	if len(runes) > excerptRunes {
		text = string(runes[:excerptRunes]) + "…"
	}
	return text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
