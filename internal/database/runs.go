package database

import "database/sql"

// InsertRun records a completed brief generation and returns its ID.
func (db *DB) InsertRun(r Run) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO runs
		(keyword, audience, goal, slug, page_count, degraded_count, html_path, txt_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Keyword, r.Audience, r.Goal, r.Slug, r.PageCount, r.DegradedCount, r.HTMLPath, r.TxtPath,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertRunPage records one analyzed competitor page for a run.
func (db *DB) InsertRunPage(p RunPage) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO run_pages
		(run_id, position, url, serp_title, snippet, page_title, heading_count, word_count, excerpt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RunID, p.Position, p.URL, p.SerpTitle, p.Snippet, p.PageTitle, p.HeadingCount, p.WordCount, p.Excerpt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, keyword, audience, goal, slug, page_count, degraded_count, html_path, txt_path, created_at
		FROM runs WHERE id = ?`, id,
	)

	var r Run
	if err := row.Scan(&r.ID, &r.Keyword, &r.Audience, &r.Goal, &r.Slug,
		&r.PageCount, &r.DegradedCount, &r.HTMLPath, &r.TxtPath, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetRecentRuns returns the most recent runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, keyword, audience, goal, slug, page_count, degraded_count, html_path, txt_path, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Keyword, &r.Audience, &r.Goal, &r.Slug,
			&r.PageCount, &r.DegradedCount, &r.HTMLPath, &r.TxtPath, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunPages returns the pages of a run ordered by position.
func (db *DB) GetRunPages(runID int64) ([]RunPage, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, position, url, serp_title, snippet, page_title, heading_count, word_count, excerpt
		FROM run_pages WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []RunPage
	for rows.Next() {
		var p RunPage
		if err := rows.Scan(&p.ID, &p.RunID, &p.Position, &p.URL, &p.SerpTitle,
			&p.Snippet, &p.PageTitle, &p.HeadingCount, &p.WordCount, &p.Excerpt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetStats returns aggregate ledger statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM runs", &s.TotalRuns},
		{"SELECT COUNT(*) FROM run_pages", &s.PagesAnalyzed},
		{"SELECT COALESCE(SUM(degraded_count), 0) FROM runs", &s.DegradedFetches},
		{"SELECT COUNT(DISTINCT keyword) FROM runs", &s.DistinctKeywords},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
