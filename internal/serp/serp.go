// Package serp queries a ranking provider for the top organic results of a
// keyword and normalizes them for competitor analysis.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	valueSerpURL = "https://api.valueserp.com/search"
	serpAPIURL   = "https://serpapi.com/search"

	// How much of the raw provider response to keep for diagnostics.
	excerptLimit = 300

	// Extra results requested to absorb losses from domain exclusion.
	overfetch = 5
)

// Result is one normalized organic ranking result.
type Result struct {
	Position int
	URL      string
	Title    string
	Snippet  string
}

// NoResultsError is returned when no provider yields usable results.
// Excerpt holds a truncated copy of the last raw response for diagnostics.
type NoResultsError struct {
	Excerpt string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no organic results found (response: %s)", e.Excerpt)
}

// Options configures a Client.
type Options struct {
	APIKey        string
	Country       string
	Language      string
	ExcludeDomain string
	Timeout       time.Duration
	NewsFallback  bool
}

// Client fetches ranked results, trying ValueSERP first and SerpAPI on a
// non-success response. Both share the {organic_results: [...]} schema.
type Client struct {
	apiKey        string
	country       string
	language      string
	excludeDomain string
	client        *http.Client

	primaryURL   string
	secondaryURL string
	news         *NewsFeed
}

// NewClient creates a new ranking client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		apiKey:        opts.APIKey,
		country:       opts.Country,
		language:      opts.Language,
		excludeDomain: opts.ExcludeDomain,
		client:        &http.Client{Timeout: timeout},
		primaryURL:    valueSerpURL,
		secondaryURL:  serpAPIURL,
	}
	if opts.NewsFallback {
		c.news = NewNewsFeed(opts.Country, opts.Language)
	}
	return c
}

type rawResult struct {
	Position    int    `json:"position"`
	Link        string `json:"link"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
}

type rawResponse struct {
	OrganicResults []rawResult `json:"organic_results"`
}

// Fetch returns at most count results for the keyword, ordered by position,
// with the excluded domain filtered out.
func (c *Client) Fetch(ctx context.Context, keyword string, count int) ([]Result, error) {
	params := url.Values{
		"api_key": {c.apiKey},
		"q":       {keyword},
		"num":     {strconv.Itoa(count + overfetch)},
		"gl":      {c.country},
		"hl":      {c.language},
		"output":  {"json"},
	}

	body, status, err := c.get(ctx, c.primaryURL, params)
	if err != nil || status != http.StatusOK {
		if err != nil {
			log.Printf("primary ranking provider failed: %v", err)
		} else {
			log.Printf("primary ranking provider returned %d, trying fallback", status)
		}
		params.Set("engine", "google")
		body, status, err = c.get(ctx, c.secondaryURL, params)
		if err != nil {
			return c.newsFallback(ctx, keyword, count, nil)
		}
		if status != http.StatusOK {
			return c.newsFallback(ctx, keyword, count, body)
		}
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return c.newsFallback(ctx, keyword, count, body)
	}

	results := c.filter(raw.OrganicResults, count)
	if len(results) == 0 {
		return c.newsFallback(ctx, keyword, count, body)
	}
	return results, nil
}

// filter drops excluded domains, assigns positions, and truncates to count.
// The provider's own rank field wins per item when present; otherwise the
// 1-based surviving-output index is used.
func (c *Client) filter(items []rawResult, count int) []Result {
	var results []Result
	for _, item := range items {
		u := item.Link
		if u == "" {
			u = item.URL
		}
		if u == "" {
			continue
		}

		domain := bareDomain(u)
		if c.excludeDomain != "" && strings.Contains(strings.ToLower(domain), strings.ToLower(c.excludeDomain)) {
			continue
		}

		pos := item.Position
		if pos <= 0 {
			pos = len(results) + 1
		}

		snippet := item.Snippet
		if snippet == "" {
			snippet = item.Description
		}

		results = append(results, Result{
			Position: pos,
			URL:      u,
			Title:    item.Title,
			Snippet:  snippet,
		})
		if len(results) >= count {
			break
		}
	}
	return results
}

func (c *Client) newsFallback(ctx context.Context, keyword string, count int, lastBody []byte) ([]Result, error) {
	if c.news != nil {
		items, err := c.news.Fetch(ctx, keyword)
		if err == nil {
			if results := c.filter(items, count); len(results) > 0 {
				log.Printf("using news feed fallback: %d results", len(results))
				return results, nil
			}
		} else {
			log.Printf("news feed fallback failed: %v", err)
		}
	}
	return nil, &NoResultsError{Excerpt: excerpt(lastBody)}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("ranking provider error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// bareDomain strips the scheme and a leading www. from a URL and discards
// everything after the first slash.
func bareDomain(rawURL string) string {
	s := rawURL
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	// Truncate on runes so a multi-byte sequence is never split.
	runes := []rune(s)
	if len(runes) > excerptLimit {
		s = string(runes[:excerptLimit])
	}
	return s
}
