package types

import "time"

// Duplicate describes one removed file and the kept image it matched
type Duplicate struct {
	Path            string  `json:"path"`
	KeptPath        string  `json:"kept_path"`
	DifferenceRatio float64 `json:"difference_ratio"`
	Size            int64   `json:"size"`
}

// ScanSummary holds the totals of a finished scan
type ScanSummary struct {
	ScanID     string        `json:"scan_id"`
	Directory  string        `json:"directory"`
	Threshold  float64       `json:"threshold"`
	Files      int           `json:"files"`
	Chunks     int           `json:"chunks"`
	Kept       int           `json:"kept"`
	Removed    int           `json:"removed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}
