package database

import (
	"path/filepath"
	"testing"
	"time"

	"imagededup/types"
)

func TestJournal_RoundTrip(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	defer db.Close()

	j := NewJournal(db)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	summary := types.ScanSummary{
		ScanID:    "scan-1",
		Directory: "/photos",
		Threshold: 0.95,
		Files:     3,
		Chunks:    1,
		StartedAt: start,
	}
	if err := j.BeginScan(summary); err != nil {
		t.Fatalf("BeginScan: %v", err)
	}
	for _, d := range []types.Duplicate{
		{Path: "/photos/b.png", KeptPath: "/photos/a.png", Size: 100},
		{Path: "/photos/c.png", KeptPath: "/photos/a.png", DifferenceRatio: 0.01, Size: 50},
	} {
		if err := j.RecordRemoval(summary.ScanID, d); err != nil {
			t.Fatalf("RecordRemoval: %v", err)
		}
	}

	summary.Kept, summary.Removed = 1, 2
	summary.FinishedAt = start.Add(1500 * time.Millisecond)
	summary.Duration = 1500 * time.Millisecond
	if err := j.FinishScan(summary); err != nil {
		t.Fatalf("FinishScan: %v", err)
	}

	stats, err := GetScanStats(db)
	if err != nil {
		t.Fatalf("GetScanStats: %v", err)
	}
	if stats.TotalScans != 1 || stats.TotalRemoved != 2 || stats.BytesReclaimed != 150 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	scans, err := RecentScans(db, 10)
	if err != nil {
		t.Fatalf("RecentScans: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("got %d scans, want 1", len(scans))
	}
	got := scans[0]
	if got.ScanID != "scan-1" || got.Removed != 2 || got.Kept != 1 || got.Duration != 1500*time.Millisecond {
		t.Errorf("unexpected scan row: %+v", got)
	}
	if !got.StartedAt.Equal(start) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, start)
	}

	dups, err := Removals(db, "scan-1")
	if err != nil {
		t.Fatalf("Removals: %v", err)
	}
	if len(dups) != 2 || dups[0].Path != "/photos/b.png" || dups[1].DifferenceRatio != 0.01 {
		t.Errorf("unexpected removals: %+v", dups)
	}
}

func TestInitDatabase_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		db, err := InitDatabase(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		db.Close()
	}

	db, err := OpenDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stats, err := GetScanStats(db)
	if err != nil {
		t.Fatalf("GetScanStats: %v", err)
	}
	if stats.TotalScans != 0 || stats.LastScanAt != "" {
		t.Errorf("expected empty journal, got %+v", stats)
	}
}
