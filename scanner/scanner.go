package scanner

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/signalhandler"
	"imagededup/types"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Scanner removes duplicate images from a directory. A Scanner runs one
// scan at a time; each scan starts with an empty registry and a zeroed
// progress counter.
type Scanner struct {
	fs      afero.Fs
	opts    Options
	loaders *imageprocessor.ImageLoaderRegistry

	running atomic.Bool
	state   atomic.Int32

	// per-scan state, reset by Scan
	threshold float64
	scanID    string
	registry  *registry
	progress  atomic.Pointer[progressTracker]
	skipped   atomic.Int64

	// guarded by registry.mu
	duplicates []types.Duplicate
	failed     int
}

// New creates a Scanner that lists, reads and removes files through fs
func New(fs afero.Fs, opts Options) *Scanner {
	if opts.Parallelism <= 0 {
		opts.Parallelism = signalhandler.GetOptimalProcs()
	}
	return &Scanner{
		fs:      fs,
		opts:    opts,
		loaders: imageprocessor.NewImageLoaderRegistry(fs),
	}
}

// State returns the lifecycle state of the current or last scan
func (s *Scanner) State() State {
	return State(s.state.Load())
}

func (s *Scanner) setState(st State) {
	s.state.Store(int32(st))
}

// Scan removes every image in dir that duplicates an image kept earlier in
// the same scan. threshold is the minimum similarity in [0,1]. progress may
// be nil.
//
// Files that cannot be decoded are skipped. A file that cannot be removed is
// logged and counted in Result.Failed. Any other worker failure is returned
// once all chunks have finished. Cancelling ctx stops workers before their
// next file; removals already done stay done.
func (s *Scanner) Scan(ctx context.Context, dir string, threshold float64, progress ProgressFunc) (*Result, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	s.reset(threshold)
	defer s.registry.close()

	summary := types.ScanSummary{
		ScanID:    s.scanID,
		Directory: dir,
		Threshold: threshold,
		StartedAt: time.Now(),
	}

	s.setState(StateEnumerating)
	files, err := ListCandidates(s.fs, dir, s.opts.IgnoreCase)
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	chunks := Partition(files, s.opts.Parallelism)
	s.progress.Store(newProgressTracker(len(chunks), progress))
	summary.Files = len(files)
	summary.Chunks = len(chunks)
	s.setState(StatePartitioned)

	logging.DebugLog("Scan %s: %d candidate files in %s, %d chunks, %d workers, threshold %.4f",
		s.scanID, len(files), dir, len(chunks), s.opts.Parallelism, threshold)

	s.beginJournal(summary)

	s.setState(StateRunning)
	err = s.runChunks(ctx, chunks)

	summary.FinishedAt = time.Now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
	summary.Skipped = int(s.skipped.Load())

	s.registry.mu.Lock()
	summary.Removed = len(s.duplicates)
	summary.Kept = len(s.registry.entries)
	summary.Failed = s.failed
	result := &Result{
		ScanSummary: summary,
		Duplicates:  append([]types.Duplicate(nil), s.duplicates...),
	}
	s.registry.mu.Unlock()

	s.finishJournal(summary)

	if err != nil {
		s.setState(StateFailed)
		logging.LogError("Scan %s failed: %v", s.scanID, err)
		return result, fmt.Errorf("scan %s: %w", dir, err)
	}

	s.setState(StateCompleted)
	logging.DebugLog("Scan %s completed in %v. Files: %d, removed: %d, skipped: %d, failed removals: %d",
		s.scanID, summary.Duration, summary.Files, summary.Removed, summary.Skipped, summary.Failed)
	return result, nil
}

func (s *Scanner) reset(threshold float64) {
	s.threshold = threshold
	s.scanID = uuid.NewString()
	s.registry = &registry{}
	s.progress.Store(newProgressTracker(0, nil))
	s.skipped.Store(0)
	s.duplicates = nil
	s.failed = 0
	s.setState(StateIdle)
}

// runChunks hands every chunk to a pool of at most Parallelism workers and
// waits for all of them
func (s *Scanner) runChunks(ctx context.Context, chunks [][]string) error {
	var g errgroup.Group
	g.SetLimit(s.opts.Parallelism)

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logging.LogError("Panic in chunk %d: %v\nStack trace: %s", i, r, string(debug.Stack()))
					err = fmt.Errorf("chunk %d: worker panic: %v", i, r)
				}
			}()
			return s.processChunk(ctx, chunk)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// processChunk handles the files of one chunk in order, then reports
// progress once
func (s *Scanner) processChunk(ctx context.Context, files []string) error {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.processFile(path)
	}
	s.progress.Load().chunkDone()
	return nil
}

// processFile decodes path and either removes it as a duplicate of a kept
// image or keeps it
func (s *Scanner) processFile(path string) {
	if !s.loaders.CanLoadFile(path) {
		s.skipped.Add(1)
		logging.LogImageSkipped(path, "no loader for file format")
		return
	}

	img, err := s.loaders.LoadImage(path)
	if err != nil {
		img.Close()
		s.skipped.Add(1)
		logging.LogImageSkipped(path, err.Error())
		return
	}

	if dup, removed := s.matchOrKeep(path, img); removed {
		s.recordRemoval(dup)
	}
}

// matchOrKeep compares img against every kept image and removes path on the
// first match, or adds img to the registry. The registry stays locked for
// the whole sequence. Ownership of img passes to the registry or it is
// closed.
func (s *Scanner) matchOrKeep(path string, img gocv.Mat) (types.Duplicate, bool) {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	for _, kept := range s.registry.entries {
		ratio, duplicate := imageprocessor.Match(kept.img, img, s.threshold)
		if !duplicate {
			continue
		}
		img.Close()
		return s.removeDuplicate(path, kept.path, ratio)
	}

	s.registry.entries = append(s.registry.entries, registryEntry{path: path, img: img})
	return types.Duplicate{}, false
}

// removeDuplicate deletes path. Must be called with registry.mu held.
func (s *Scanner) removeDuplicate(path, keptPath string, ratio float64) (types.Duplicate, bool) {
	var size int64
	if info, err := s.fs.Stat(path); err == nil {
		size = info.Size()
	}

	if err := s.fs.Remove(path); err != nil {
		s.failed++
		logging.LogError("Failed to remove duplicate %s (of %s): %v", path, keptPath, err)
		return types.Duplicate{}, false
	}

	dup := types.Duplicate{
		Path:            path,
		KeptPath:        keptPath,
		DifferenceRatio: ratio,
		Size:            size,
	}
	s.duplicates = append(s.duplicates, dup)
	logging.LogDuplicateRemoved(path, keptPath, ratio)
	return dup, true
}

// recordRemoval writes dup to the journal. Called without registry.mu.
func (s *Scanner) recordRemoval(dup types.Duplicate) {
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.RecordRemoval(s.scanID, dup); err != nil {
		logging.LogWarning("Cannot journal removal of %s: %v", dup.Path, err)
	}
}

func (s *Scanner) beginJournal(summary types.ScanSummary) {
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.BeginScan(summary); err != nil {
		logging.LogWarning("Cannot journal scan %s: %v", summary.ScanID, err)
	}
}

func (s *Scanner) finishJournal(summary types.ScanSummary) {
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.FinishScan(summary); err != nil {
		logging.LogWarning("Cannot finish journal for scan %s: %v", summary.ScanID, err)
	}
}

// Progress returns the completed and total chunk counts of the current or
// last scan
func (s *Scanner) Progress() (completed, total int) {
	p := s.progress.Load()
	if p == nil {
		return 0, 0
	}
	return p.snapshot()
}
