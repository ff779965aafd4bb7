package database

// Run is one recorded brief generation.
type Run struct {
	ID            int64
	Keyword       string
	Audience      string
	Goal          string
	Slug          string
	PageCount     int
	DegradedCount int
	HTMLPath      string
	TxtPath       string
	CreatedAt     string
}

// RunPage is one analyzed competitor page within a run.
type RunPage struct {
	ID           int64
	RunID        int64
	Position     int
	URL          string
	SerpTitle    string
	Snippet      string
	PageTitle    string
	HeadingCount int
	WordCount    int
	Excerpt      string
}

// Stats holds aggregate ledger statistics.
type Stats struct {
	TotalRuns        int
	PagesAnalyzed    int
	DegradedFetches  int
	DistinctKeywords int
}
