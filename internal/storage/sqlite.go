package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"orderscraper/internal/models"
)

// Archive keeps a history of scrape runs in a local sqlite file, so the
// dashboard can show when the data was refreshed and how each run went.
type Archive struct {
	DB *sql.DB
}

// OpenArchive opens (and if needed initializes) the run-history database.
func OpenArchive(filepath string) (*Archive, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging archive database: %w", err)
	}

	createRunsTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"started_at" DATETIME,
		"account" TEXT,
		"locale" TEXT,
		"state" TEXT,
		"order_count" INTEGER,
		"page_count" INTEGER,
		"skipped_items" INTEGER,
		"partial" BOOLEAN DEFAULT 0,
		"output_path" TEXT,
		"flags" TEXT
	);`
	if _, err := db.Exec(createRunsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}

	return &Archive{DB: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.DB.Close()
}

// RecordRun appends one run to the archive.
func (a *Archive) RecordRun(rec models.RunRecord) (int64, error) {
	query := `
	INSERT INTO runs (
		started_at, account, locale, state, order_count, page_count,
		skipped_items, partial, output_path, flags
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := a.DB.Prepare(query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		rec.StartedAt.UTC().Format(time.RFC3339), rec.Account, rec.Locale,
		string(rec.State), rec.OrderCount, rec.PageCount,
		rec.SkippedItems, rec.Partial, rec.OutputPath, rec.Flags,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns all archived runs, newest first.
func (a *Archive) ListRuns() ([]models.RunRecord, error) {
	rows, err := a.DB.Query(`
		SELECT id, started_at, account, locale, state, order_count,
		       page_count, skipped_items, partial, output_path, flags
		FROM runs
		ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var startedAt string
		var state string
		if err := rows.Scan(
			&rec.ID, &startedAt, &rec.Account, &rec.Locale, &state,
			&rec.OrderCount, &rec.PageCount, &rec.SkippedItems,
			&rec.Partial, &rec.OutputPath, &rec.Flags,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		rec.State = models.RunState(state)
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			rec.StartedAt = t
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}
