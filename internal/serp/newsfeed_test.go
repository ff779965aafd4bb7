package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const newsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Ricerca</title>
<item>
<title>Guida A</title>
<link>https://competitor-a.it/guida</link>
<description>&lt;b&gt;Snippet&lt;/b&gt; con &amp;amp; entità</description>
</item>
<item>
<title>Pagina mia</title>
<link>https://www.miosito.it/pagina</link>
<description>da escludere</description>
</item>
<item>
<title>Guida B</title>
<link>https://competitor-b.it/articolo</link>
<description>Altro snippet</description>
</item>
</channel>
</rss>`

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "content marketing" {
			t.Errorf("expected keyword query, got %q", q)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(newsRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchNewsFallback(t *testing.T) {
	failing := failingServer(t)

	c := testClient(failing.URL, failing.URL)
	c.news = NewNewsFeed("it", "it")
	c.news.baseURL = newsServer(t).URL

	results, err := c.Fetch(context.Background(), "content marketing", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results after exclusion, got %+v", results)
	}
	// Feed items carry no rank; positions come from the surviving index.
	for i, r := range results {
		if r.Position != i+1 {
			t.Errorf("expected position %d, got %d", i+1, r.Position)
		}
		if d := bareDomain(r.URL); d == "miosito.it" {
			t.Errorf("excluded domain leaked through: %s", r.URL)
		}
	}
	if results[0].Title != "Guida A" || results[1].Title != "Guida B" {
		t.Errorf("expected feed order preserved, got %+v", results)
	}
	// Descriptions are stripped of tags and decoded before use as snippets.
	if results[0].Snippet != "Snippet con & entità" {
		t.Errorf("unexpected snippet %q", results[0].Snippet)
	}
}

func TestFetchNewsFallbackDisabled(t *testing.T) {
	failing := failingServer(t)

	c := testClient(failing.URL, failing.URL)

	_, err := c.Fetch(context.Background(), "kw", 3)
	var noRes *NoResultsError
	if !errors.As(err, &noRes) {
		t.Fatalf("expected NoResultsError without fallback, got %v", err)
	}
}

func TestFetchNewsFallbackFeedFailure(t *testing.T) {
	failing := failingServer(t)

	c := testClient(failing.URL, failing.URL)
	c.news = NewNewsFeed("it", "it")
	c.news.baseURL = failing.URL

	_, err := c.Fetch(context.Background(), "kw", 3)
	var noRes *NoResultsError
	if !errors.As(err, &noRes) {
		t.Fatalf("expected NoResultsError when the feed also fails, got %v", err)
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<b>testo</b> semplice", "testo semplice"},
		{"senza tag", "senza tag"},
		{"a&nbsp;b &amp; c", "a b & c"},
		{"&lt;non un tag&gt; &quot;citazione&quot; &#39;apice&#39;", "<non un tag> \"citazione\" 'apice'"},
		{"<a href=\"https://x.it\">link</a>  e   spazi", "link e spazi"},
	}
	for _, c := range cases {
		if got := stripHTML(c.in); got != c.want {
			t.Errorf("stripHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
