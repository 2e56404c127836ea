package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateRun starts a run record
func (d *DB) CreateRun(id, input string, startedAt time.Time) error {
	_, err := d.conn.Exec(`
		INSERT INTO runs (id, input, started_at) VALUES (?, ?, ?)
	`, id, input, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the document counts of a run and marks it finished
func (d *DB) FinishRun(id string, documents, degraded, duplicates int, finishedAt time.Time) error {
	result, err := d.conn.Exec(`
		UPDATE runs SET documents = ?, degraded = ?, duplicates = ?, finished_at = ?
		WHERE id = ?
	`, documents, degraded, duplicates, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", id)
	}
	return nil
}

// GetRun returns a run by ID, or nil when it does not exist
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.conn.QueryRow(`
		SELECT id, input, documents, degraded, duplicates, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// GetRecentRuns returns the most recent runs
func (d *DB) GetRecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, input, documents, degraded, duplicates, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	if err := s.Scan(&run.ID, &run.Input, &run.Documents, &run.Degraded, &run.Duplicates, &run.StartedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
