// Package pipeline drives the brief generation end to end: SERP fetch,
// per-page analysis, synthesis, rendering, and the run ledger.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"briefgen/internal/brief"
	"briefgen/internal/config"
	"briefgen/internal/database"
	"briefgen/internal/extract"
	"briefgen/internal/llm"
	"briefgen/internal/render"
	"briefgen/internal/serp"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Keyword  string
	Steps    []StepResult
	RunID    int64
	HTMLPath string
	TxtPath  string
}

// Params are the per-run inputs. Zero Audience/Goal fall back to the
// configured defaults.
type Params struct {
	Keyword       string
	Audience      string
	Goal          string
	ResultCount   int
	ExcludeDomain string
	OutputDir     string
}

type searcher interface {
	Fetch(ctx context.Context, keyword string, count int) ([]serp.Result, error)
}

type extractor interface {
	Extract(pageURL string) extract.PageSignal
}

type generator interface {
	Generate(ctx context.Context, req brief.Request) (string, error)
	IsConfigured() bool
}

// Pipeline orchestrates the 6-step brief generation pipeline.
type Pipeline struct {
	cfg        *config.Config
	db         *database.DB
	search     searcher
	extractor  extractor
	generator  generator
	fetchDelay time.Duration
	serpKey    string
	now        func() time.Time
}

// New creates a new pipeline from the configuration. db may be nil, in which
// case the run is not recorded.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	provider := llm.NewOpenAIProvider(cfg.Brief.Model, cfg.Brief.APIKeyEnv)

	return &Pipeline{
		cfg: cfg,
		db:  db,
		search: serp.NewClient(serp.Options{
			APIKey:        cfg.SerpAPIKey(),
			Country:       cfg.Search.Country,
			Language:      cfg.Search.Language,
			ExcludeDomain: cfg.ExcludedDomain(),
			Timeout:       time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
			NewsFallback:  cfg.Search.NewsFallback,
		}),
		extractor:  extract.NewExtractor(time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, cfg.Fetch.UserAgent),
		generator:  brief.NewGenerator(provider, cfg.Brief.MaxTokens),
		fetchDelay: time.Duration(cfg.Fetch.DelayMs) * time.Millisecond,
		serpKey:    cfg.SerpAPIKey(),
		now:        time.Now,
	}
}

// Run executes the full 6-step pipeline. The first failing fatal step ends
// the run; the ledger step never fails the run.
func (p *Pipeline) Run(ctx context.Context, params Params) *Result {
	p.applyDefaults(&params)
	r := &Result{Keyword: params.Keyword}

	// Step 1: Validate
	step := p.runValidate(params)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Search
	results, step := p.runSearch(ctx, params)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 3: Analyze
	pages, degraded, step := p.runAnalyze(ctx, results)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	req := brief.Request{
		Keyword:  params.Keyword,
		Audience: params.Audience,
		Goal:     params.Goal,
		Pages:    pages,
	}

	// Step 4: Synthesize
	rawText, step := p.runSynthesize(ctx, req)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 5: Render
	step = p.runRender(r, req, rawText, params.OutputDir)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 6: Record
	r.Steps = append(r.Steps, p.runRecord(r, req, degraded))

	return r
}

func (p *Pipeline) applyDefaults(params *Params) {
	if params.Audience == "" {
		params.Audience = p.cfg.Brief.Audience
	}
	if params.Goal == "" {
		params.Goal = p.cfg.Brief.Goal
	}
	if params.ResultCount == 0 {
		params.ResultCount = p.cfg.Search.Results
	}
	// The 3-10 bound applies to the flag and the config value alike.
	if params.ResultCount < 3 {
		params.ResultCount = 3
	}
	if params.ResultCount > 10 {
		params.ResultCount = 10
	}
}

func (p *Pipeline) runValidate(params Params) StepResult {
	log.Println("Step 1/6: Validating inputs...")

	req := brief.Request{Keyword: params.Keyword}
	if err := req.Validate(); err != nil {
		return StepResult{Name: "Validate", Err: err}
	}
	if p.serpKey == "" {
		return StepResult{Name: "Validate", Err: fmt.Errorf("search API key is not set (%s)", p.cfg.Search.APIKeyEnv)}
	}
	if !p.generator.IsConfigured() {
		return StepResult{Name: "Validate", Err: fmt.Errorf("model API key is not set (%s)", p.cfg.Brief.APIKeyEnv)}
	}

	return StepResult{
		Name:    "Validate",
		Summary: fmt.Sprintf("Keyword %q, analyzing top %d results", params.Keyword, params.ResultCount),
	}
}

func (p *Pipeline) runSearch(ctx context.Context, params Params) ([]serp.Result, StepResult) {
	log.Println("Step 2/6: Fetching ranked results...")

	search := p.search
	if params.ExcludeDomain != "" {
		// Per-run exclusion overrides the configured one.
		opts := serp.Options{
			APIKey:        p.serpKey,
			Country:       p.cfg.Search.Country,
			Language:      p.cfg.Search.Language,
			ExcludeDomain: params.ExcludeDomain,
			Timeout:       time.Duration(p.cfg.Search.TimeoutSeconds) * time.Second,
			NewsFallback:  p.cfg.Search.NewsFallback,
		}
		search = serp.NewClient(opts)
	}

	results, err := search.Fetch(ctx, params.Keyword, params.ResultCount)
	if err != nil {
		return nil, StepResult{Name: "Search", Err: err}
	}
	return results, StepResult{
		Name:    "Search",
		Summary: fmt.Sprintf("Found %d ranked pages", len(results)),
	}
}

func (p *Pipeline) runAnalyze(ctx context.Context, results []serp.Result) ([]brief.CompetitorPage, int, StepResult) {
	log.Println("Step 3/6: Analyzing competitor pages...")

	pages := make([]brief.CompetitorPage, 0, len(results))
	degraded := 0
	for i, res := range results {
		if i > 0 && p.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, StepResult{Name: "Analyze", Err: ctx.Err()}
			case <-time.After(p.fetchDelay):
			}
		}

		sig := p.extractor.Extract(res.URL)
		if sig.IsZero() {
			degraded++
		}
		pages = append(pages, brief.CompetitorPage{Result: res, PageSignal: sig})
	}

	return pages, degraded, StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("Analyzed %d pages, %d without content", len(pages), degraded),
	}
}

func (p *Pipeline) runSynthesize(ctx context.Context, req brief.Request) (string, StepResult) {
	log.Println("Step 4/6: Synthesizing brief...")

	rawText, err := p.generator.Generate(ctx, req)
	if err != nil {
		return "", StepResult{Name: "Synthesize", Err: err}
	}
	return rawText, StepResult{
		Name:    "Synthesize",
		Summary: fmt.Sprintf("Brief synthesized (%d characters)", len(rawText)),
	}
}

func (p *Pipeline) runRender(r *Result, req brief.Request, rawText, outputDir string) StepResult {
	log.Println("Step 5/6: Rendering documents...")

	if outputDir == "" {
		outputDir = filepath.Join(p.cfg.GetDataDir(), "briefs")
	}
	htmlPath, txtPath, err := render.WriteArtifacts(outputDir, req, rawText, p.now())
	if err != nil {
		return StepResult{Name: "Render", Err: err}
	}
	r.HTMLPath = htmlPath
	r.TxtPath = txtPath
	return StepResult{
		Name:    "Render",
		Summary: fmt.Sprintf("Wrote %s and %s", htmlPath, txtPath),
	}
}

func (p *Pipeline) runRecord(r *Result, req brief.Request, degraded int) StepResult {
	log.Println("Step 6/6: Recording run...")

	if p.db == nil {
		return StepResult{Name: "Record", Summary: "Ledger disabled, run not recorded"}
	}

	runID, err := p.db.InsertRun(database.Run{
		Keyword:       req.Keyword,
		Audience:      req.Audience,
		Goal:          req.Goal,
		Slug:          render.Slug(req.Keyword),
		PageCount:     len(req.Pages),
		DegradedCount: degraded,
		HTMLPath:      r.HTMLPath,
		TxtPath:       r.TxtPath,
	})
	if err != nil {
		log.Printf("recording run: %v", err)
		return StepResult{Name: "Record", Summary: "Run not recorded (ledger error)"}
	}
	r.RunID = runID

	for _, pg := range req.Pages {
		_, err := p.db.InsertRunPage(database.RunPage{
			RunID:        runID,
			Position:     pg.Position,
			URL:          pg.URL,
			SerpTitle:    pg.Title,
			Snippet:      pg.Snippet,
			PageTitle:    pg.PageTitle,
			HeadingCount: len(pg.Headings),
			WordCount:    pg.WordCount,
			Excerpt:      pg.Excerpt,
		})
		if err != nil {
			log.Printf("recording page %d: %v", pg.Position, err)
		}
	}

	return StepResult{
		Name:    "Record",
		Summary: fmt.Sprintf("Run #%d recorded (%d pages)", runID, len(req.Pages)),
	}
}
