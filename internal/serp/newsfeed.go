package serp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

const newsFeedBaseURL = "https://news.google.com/rss/search"

// NewsFeed is a keyless last-resort ranking source backed by the Google News
// RSS search feed. Item order stands in for rank; positions are assigned by
// the client's filter pass.
type NewsFeed struct {
	country  string
	language string
	parser   *gofeed.Parser
	baseURL  string
}

// NewNewsFeed creates a news feed source for the given locale.
func NewNewsFeed(country, language string) *NewsFeed {
	return &NewsFeed{
		country:  country,
		language: language,
		parser:   gofeed.NewParser(),
		baseURL:  newsFeedBaseURL,
	}
}

// Fetch parses the news feed for the keyword and returns raw items.
func (n *NewsFeed) Fetch(ctx context.Context, keyword string) ([]rawResult, error) {
	gl := strings.ToUpper(n.country)
	params := url.Values{
		"q":    {keyword},
		"hl":   {n.language},
		"gl":   {gl},
		"ceid": {gl + ":" + n.language},
	}

	feed, err := n.parser.ParseURLWithContext(n.baseURL+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing news feed: %w", err)
	}

	var items []rawResult
	for _, item := range feed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		items = append(items, rawResult{
			Link:        item.Link,
			Title:       strings.TrimSpace(item.Title),
			Description: stripHTML(item.Description),
		})
	}
	return items, nil
}

// stripHTML removes tags and decodes common entities from feed descriptions.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
