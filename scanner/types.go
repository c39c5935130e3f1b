package scanner

import (
	"errors"

	"imagededup/types"
)

var (
	// ErrInvalidThreshold is returned when the similarity threshold is
	// outside [0,1]. The scan does not start.
	ErrInvalidThreshold = errors.New("similarity threshold must be within [0,1]")

	// ErrScanInProgress is returned when Scan is called on a Scanner that is
	// already running a scan
	ErrScanInProgress = errors.New("scan already in progress")
)

// ProgressFunc receives the number of completed chunks and the total number
// of chunks. It is called once per completed chunk from whichever worker
// goroutine finished it; calls never overlap, but they must not block long.
type ProgressFunc func(completed, total int)

// Journal records scans and removed files. Failures are logged and never
// abort a scan.
type Journal interface {
	BeginScan(summary types.ScanSummary) error
	RecordRemoval(scanID string, dup types.Duplicate) error
	FinishScan(summary types.ScanSummary) error
}

// Options defines the options for scanning
type Options struct {
	// Parallelism bounds both the chunk count heuristic and the worker
	// pool. Zero means the number of available CPUs.
	Parallelism int

	// IgnoreCase also accepts upper-case extensions such as ".PNG". Off by
	// default: only lower-case suffixes are candidates.
	IgnoreCase bool

	// Journal is optional
	Journal Journal
}

// Result holds the outcome of one scan
type Result struct {
	types.ScanSummary
	Duplicates []types.Duplicate
}

// State is the lifecycle of a scan
type State int

const (
	StateIdle State = iota
	StateEnumerating
	StatePartitioned
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnumerating:
		return "enumerating"
	case StatePartitioned:
		return "partitioned"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
