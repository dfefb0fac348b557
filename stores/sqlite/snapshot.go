// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package sqlite writes the loaded dataset to a SQLite file for offline inspection.
// The query service never reads from it.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/model"
	_ "modernc.org/sqlite"
)

//go:embed snapshot.sql
var schemaSQL string

// Snapshot is a SQLite database holding a copy of the dataset.
type Snapshot struct {
	db *sql.DB
}

// Create creates a new snapshot database at path and applies the schema.
// An empty path creates an in-memory database. Returns an error if the file already exists.
func Create(ctx context.Context, path string) (*Snapshot, error) {
	var dsn string
	if path == "" {
		dsn = "file::memory:"
	} else {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("database file already exists: %s", path)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a second pooled connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}
	return &Snapshot{db: db}, nil
}

// Close closes the database connection.
func (s *Snapshot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write stores the records in load order along with provenance metadata.
func (s *Snapshot) Write(ctx context.Context, source string, records []*model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	meta := map[string]string{
		"source":      source,
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"version":     aresmem.Version().String(),
		"records":     fmt.Sprint(len(records)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (seq, case_id, step_id, step_name, fps, bleeding_score, rules_text, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal %s/%d: %w", r.CaseID, r.StepID, err)
		}
		fps, fpsOK := r.ResolveFPS()
		bleed, bleedOK := r.ResolveBleedingScore()
		if _, err := stmt.ExecContext(ctx,
			i+1,
			r.CaseID,
			r.StepID,
			nullString(r.StepName),
			sql.NullFloat64{Float64: fps, Valid: fpsOK},
			sql.NullFloat64{Float64: bleed, Valid: bleedOK},
			nullString(r.RulesText),
			string(doc),
		); err != nil {
			return fmt.Errorf("insert %s/%d: %w", r.CaseID, r.StepID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TableStats returns the row count of each table.
func (s *Snapshot) TableStats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)
	for _, table := range []string{"meta", "records"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}

// DistinctCases returns the number of distinct case ids in the snapshot.
func (s *Snapshot) DistinctCases(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT case_id) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cases: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
