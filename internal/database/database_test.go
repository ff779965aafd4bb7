package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	db := openTestDB(t)

	var timeout int
	if err := db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("expected nested directories to be created: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("expected path %q, got %q", path, db.Path())
	}
}

func TestInsertAndGetRun(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertRun(Run{
		Keyword:       "content marketing B2B",
		Audience:      "Marketing manager",
		Goal:          "Generare lead",
		Slug:          "content-marketing-b2b",
		PageCount:     8,
		DegradedCount: 2,
		HTMLPath:      "/out/brief.html",
		TxtPath:       "/out/brief.txt",
	})
	if err != nil {
		t.Fatalf("inserting run: %v", err)
	}

	r, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if r == nil {
		t.Fatal("expected run, got nil")
	}
	if r.Keyword != "content marketing B2B" || r.PageCount != 8 || r.DegradedCount != 2 {
		t.Errorf("unexpected run: %+v", r)
	}
	if r.CreatedAt == "" {
		t.Error("expected created_at to be stamped")
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)

	r, err := db.GetRun(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil for missing run, got %+v", r)
	}
}

func TestGetRecentRunsOrder(t *testing.T) {
	db := openTestDB(t)

	for _, kw := range []string{"primo", "secondo", "terzo"} {
		if _, err := db.InsertRun(Run{Keyword: kw, Slug: kw}); err != nil {
			t.Fatalf("inserting run: %v", err)
		}
	}

	runs, err := db.GetRecentRuns(2)
	if err != nil {
		t.Fatalf("getting recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Keyword != "terzo" || runs[1].Keyword != "secondo" {
		t.Errorf("expected newest first, got %+v", runs)
	}
}

func TestRunPagesOrderedByPosition(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.InsertRun(Run{Keyword: "kw", Slug: "kw"})
	if err != nil {
		t.Fatalf("inserting run: %v", err)
	}

	for _, pos := range []int{3, 1, 2} {
		_, err := db.InsertRunPage(RunPage{RunID: runID, Position: pos, URL: "https://example.com"})
		if err != nil {
			t.Fatalf("inserting page: %v", err)
		}
	}

	pages, err := db.GetRunPages(runID)
	if err != nil {
		t.Fatalf("getting pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, want := range []int{1, 2, 3} {
		if pages[i].Position != want {
			t.Errorf("page %d: expected position %d, got %d", i, want, pages[i].Position)
		}
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	s, err := db.GetStats()
	if err != nil {
		t.Fatalf("getting stats on empty db: %v", err)
	}
	if s.TotalRuns != 0 || s.DegradedFetches != 0 {
		t.Errorf("expected zero stats, got %+v", s)
	}

	runID, _ := db.InsertRun(Run{Keyword: "kw", Slug: "kw", DegradedCount: 2})
	db.InsertRun(Run{Keyword: "kw", Slug: "kw", DegradedCount: 1})
	db.InsertRunPage(RunPage{RunID: runID, Position: 1, URL: "https://a.it"})

	s, err = db.GetStats()
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}
	if s.TotalRuns != 2 || s.PagesAnalyzed != 1 || s.DegradedFetches != 3 || s.DistinctKeywords != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}
