package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sigreer/autosupport/internal/asup"
)

// SaveRecord stores one parse result under a run and returns its ID. link
// is the join mode the result was parsed with; empty means exact.
func (d *DB) SaveRecord(runID, digest, link string, res asup.Result) (int64, error) {
	rec := res.Record
	if link == "" {
		link = asup.LinkOptions{}.String()
	}
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO records (
			run_id, document, archive, digest, link,
			serial, hostname, model, generated_on, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, rec.Source.Document, rec.Source.Archive, nullString(digest), link,
		rec.Field(asup.FieldSerialNo), rec.Field(asup.FieldHostname),
		rec.Field(asup.FieldModelNo), rec.Field(asup.FieldGeneratedOn), nullString(errText),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get record id: %w", err)
	}

	for i, f := range rec.Fields {
		if _, err := tx.Exec(`
			INSERT INTO record_fields (record_id, position, name, value) VALUES (?, ?, ?, ?)
		`, id, i, f.Name, f.Value); err != nil {
			return 0, fmt.Errorf("failed to insert field %s: %w", f.Name, err)
		}
	}

	for i, s := range rec.Services {
		if _, err := tx.Exec(`
			INSERT INTO record_services (record_id, position, service, status) VALUES (?, ?, ?, ?)
		`, id, i, s.Service, string(s.Status)); err != nil {
			return 0, fmt.Errorf("failed to insert service %s: %w", s.Service, err)
		}
	}

	for i, t := range rec.Tables {
		if err := insertTable(tx, id, i, t); err != nil {
			return 0, err
		}
	}
	if err := insertTable(tx, id, positionCloudProfiles, rec.CloudProfiles); err != nil {
		return 0, err
	}
	if err := insertTable(tx, id, positionCloudMovement, rec.CloudMovement); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit record: %w", err)
	}
	return id, nil
}

func insertTable(tx *sql.Tx, recordID int64, position int, t asup.Table) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns of %s: %w", t.Name, err)
	}
	rows := t.Rows
	if rows == nil {
		rows = []asup.Row{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows of %s: %w", t.Name, err)
	}

	_, err = tx.Exec(`
		INSERT INTO record_tables (record_id, position, name, family, columns_json, rows_json, row_count, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, recordID, position, t.Name, string(t.Family), string(columns), string(rowsJSON), len(rows), t.Note)
	if err != nil {
		return fmt.Errorf("failed to insert table %s: %w", t.Name, err)
	}
	return nil
}

// RecordFilter narrows ListRecords
type RecordFilter struct {
	Serial   string
	Hostname string
	RunID    string
	Limit    int
}

// ListRecords returns stored record summaries, newest first
func (d *DB) ListRecords(filter RecordFilter) ([]*StoredRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var where []string
	var args []any
	if filter.Serial != "" {
		where = append(where, "serial = ?")
		args = append(args, filter.Serial)
	}
	if filter.Hostname != "" {
		where = append(where, "hostname = ?")
		args = append(args, filter.Hostname)
	}
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}

	query := `
		SELECT id, run_id, document, archive, digest, link, serial, hostname, model, generated_on, error, created_at
		FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*StoredRecord
	for rows.Next() {
		rec, err := scanStoredRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecord rebuilds a stored record. It returns nil, nil, nil when id is
// unknown.
func (d *DB) GetRecord(id int64) (*StoredRecord, *asup.Record, error) {
	row := d.conn.QueryRow(`
		SELECT id, run_id, document, archive, digest, link, serial, hostname, model, generated_on, error, created_at
		FROM records WHERE id = ?
	`, id)
	stored, err := scanStoredRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rec := &asup.Record{
		Source: asup.Source{Document: stored.Document, Archive: stored.Archive},
	}
	if rec.Fields, err = d.recordFields(id); err != nil {
		return nil, nil, err
	}
	if rec.Services, err = d.recordServices(id); err != nil {
		return nil, nil, err
	}
	if err := d.recordTables(id, rec); err != nil {
		return nil, nil, err
	}
	return stored, rec, nil
}

// FindRecord returns the newest successfully parsed record with the given
// content digest and join mode. It returns nil, nil, nil when there is none.
func (d *DB) FindRecord(digest, link string) (*StoredRecord, *asup.Record, error) {
	var id int64
	err := d.conn.QueryRow(`
		SELECT id FROM records
		WHERE digest = ? AND link = ? AND error IS NULL
		ORDER BY id DESC LIMIT 1
	`, digest, link).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up digest: %w", err)
	}
	return d.GetRecord(id)
}

// RecordCount returns the number of stored records and how many are degraded
func (d *DB) RecordCount() (total, degraded int, err error) {
	err = d.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM records
	`).Scan(&total, &degraded)
	return
}

func (d *DB) recordFields(id int64) ([]asup.Field, error) {
	rows, err := d.conn.Query(`
		SELECT name, value FROM record_fields WHERE record_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	fields := []asup.Field{}
	for rows.Next() {
		var f asup.Field
		if err := rows.Scan(&f.Name, &f.Value); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (d *DB) recordServices(id int64) ([]asup.ServiceStatus, error) {
	rows, err := d.conn.Query(`
		SELECT service, status FROM record_services WHERE record_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	services := []asup.ServiceStatus{}
	for rows.Next() {
		var s asup.ServiceStatus
		var status string
		if err := rows.Scan(&s.Service, &status); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		s.Status = asup.Status(status)
		services = append(services, s)
	}
	return services, rows.Err()
}

func (d *DB) recordTables(id int64, rec *asup.Record) error {
	rows, err := d.conn.Query(`
		SELECT position, name, family, columns_json, rows_json, note
		FROM record_tables WHERE record_id = ? ORDER BY position
	`, id)
	if err != nil {
		return fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	rec.Tables = []asup.Table{}
	for rows.Next() {
		var position int
		var family, columnsJSON, rowsJSON string
		var note sql.NullString
		var t asup.Table
		if err := rows.Scan(&position, &t.Name, &family, &columnsJSON, &rowsJSON, &note); err != nil {
			return fmt.Errorf("failed to scan table: %w", err)
		}
		t.Family = asup.Family(family)
		t.Note = note.String
		if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
			return fmt.Errorf("failed to decode columns of %s: %w", t.Name, err)
		}
		if err := json.Unmarshal([]byte(rowsJSON), &t.Rows); err != nil {
			return fmt.Errorf("failed to decode rows of %s: %w", t.Name, err)
		}
		if t.Rows == nil {
			t.Rows = []asup.Row{}
		}

		switch position {
		case positionCloudProfiles:
			rec.CloudProfiles = t
		case positionCloudMovement:
			rec.CloudMovement = t
		default:
			rec.Tables = append(rec.Tables, t)
		}
	}
	return rows.Err()
}

func scanStoredRecord(s scanner) (*StoredRecord, error) {
	var rec StoredRecord
	var digest, serial, hostname, model, generatedOn, errText sql.NullString
	err := s.Scan(
		&rec.ID, &rec.RunID, &rec.Document, &rec.Archive, &digest, &rec.Link,
		&serial, &hostname, &model, &generatedOn, &errText, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	rec.Digest = digest.String
	rec.Serial = serial.String
	rec.Hostname = hostname.String
	rec.Model = model.String
	rec.GeneratedOn = generatedOn.String
	rec.Error = errText.String
	return &rec, nil
}
