package database

import (
	"database/sql"
	"fmt"
	"time"

	"imagededup/logging"
	"imagededup/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the removal journal at dbPath and creates its tables
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Removals arrive from several workers; one connection avoids
	// SQLITE_BUSY between them
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		directory TEXT NOT NULL,
		threshold REAL NOT NULL,
		files INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		kept INTEGER NOT NULL DEFAULT 0,
		removed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		duration_ms INTEGER
	);
	CREATE TABLE IF NOT EXISTS removals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL REFERENCES scans(id),
		path TEXT NOT NULL,
		kept_path TEXT NOT NULL,
		difference_ratio REAL NOT NULL,
		size INTEGER NOT NULL,
		removed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_removals_scan ON removals(scan_id);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create journal tables: %w", err)
	}

	logging.DebugLog("Opened removal journal %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing journal without touching its schema
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// Journal writes scans and removals to the database
type Journal struct {
	db *sql.DB
}

// NewJournal wraps an initialized database
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// BeginScan stores the scan row before any file is removed
func (j *Journal) BeginScan(s types.ScanSummary) error {
	_, err := j.db.Exec(`
		INSERT INTO scans (id, directory, threshold, files, chunks, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ScanID, s.Directory, s.Threshold, s.Files, s.Chunks, s.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cannot insert scan %s: %w", s.ScanID, err)
	}
	return nil
}

// RecordRemoval stores one removed duplicate
func (j *Journal) RecordRemoval(scanID string, d types.Duplicate) error {
	_, err := j.db.Exec(`
		INSERT INTO removals (scan_id, path, kept_path, difference_ratio, size, removed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		scanID, d.Path, d.KeptPath, d.DifferenceRatio, d.Size, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cannot insert removal of %s: %w", d.Path, err)
	}
	return nil
}

// FinishScan stores the final totals of a scan
func (j *Journal) FinishScan(s types.ScanSummary) error {
	_, err := j.db.Exec(`
		UPDATE scans SET kept = ?, removed = ?, skipped = ?, failed = ?, finished_at = ?, duration_ms = ?
		WHERE id = ?`,
		s.Kept, s.Removed, s.Skipped, s.Failed, s.FinishedAt.Format(time.RFC3339Nano),
		s.Duration.Milliseconds(), s.ScanID)
	if err != nil {
		return fmt.Errorf("cannot update scan %s: %w", s.ScanID, err)
	}
	return nil
}

// ScanStats contains totals across every journaled scan
type ScanStats struct {
	TotalScans     int
	TotalRemoved   int
	BytesReclaimed int64
	LastScanAt     string
}

// GetScanStats retrieves statistics about journaled scans
func GetScanStats(db *sql.DB) (*ScanStats, error) {
	var stats ScanStats

	err := db.QueryRow("SELECT COUNT(*), COALESCE(MAX(started_at), '') FROM scans").
		Scan(&stats.TotalScans, &stats.LastScanAt)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM removals").
		Scan(&stats.TotalRemoved, &stats.BytesReclaimed)
	if err != nil {
		return nil, fmt.Errorf("failed to count removals: %w", err)
	}

	return &stats, nil
}

// RecentScans returns the newest scans first
func RecentScans(db *sql.DB, limit int) ([]types.ScanSummary, error) {
	rows, err := db.Query(`
		SELECT id, directory, threshold, files, chunks, kept, removed, skipped, failed,
		       started_at, COALESCE(finished_at, ''), COALESCE(duration_ms, 0)
		FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []types.ScanSummary
	for rows.Next() {
		var s types.ScanSummary
		var startedAt, finishedAt string
		var durationMs int64
		if err := rows.Scan(&s.ScanID, &s.Directory, &s.Threshold, &s.Files, &s.Chunks, &s.Kept,
			&s.Removed, &s.Skipped, &s.Failed, &startedAt, &finishedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to read scan row: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt != "" {
			s.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		}
		s.Duration = time.Duration(durationMs) * time.Millisecond
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// Removals returns the files removed by one scan, in removal order
func Removals(db *sql.DB, scanID string) ([]types.Duplicate, error) {
	rows, err := db.Query(`
		SELECT path, kept_path, difference_ratio, size FROM removals
		WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query removals: %w", err)
	}
	defer rows.Close()

	var dups []types.Duplicate
	for rows.Next() {
		var d types.Duplicate
		if err := rows.Scan(&d.Path, &d.KeptPath, &d.DifferenceRatio, &d.Size); err != nil {
			return nil, fmt.Errorf("failed to read removal row: %w", err)
		}
		dups = append(dups, d)
	}
	return dups, rows.Err()
}
