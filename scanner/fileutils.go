package scanner

import (
	"fmt"
	"path/filepath"

	"imagededup/imageprocessor"

	"github.com/spf13/afero"
)

// ListCandidates returns the image files directly inside dir, in name
// order. Subdirectories are not traversed.
func ListCandidates(fs afero.Fs, dir string, ignoreCase bool) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, info := range entries {
		if info.IsDir() {
			continue
		}
		if imageprocessor.HasImageSuffix(info.Name(), ignoreCase) {
			files = append(files, filepath.Join(dir, info.Name()))
		}
	}
	return files, nil
}

// Partition splits files into contiguous chunks for parallelism workers.
// The chunk size is len(files)/parallelism; when that would be zero, all
// files go into a single chunk. A trailing partial chunk is kept as its own
// chunk, so the count is ceil(len/size). No files means no chunks.
func Partition(files []string, parallelism int) [][]string {
	if len(files) == 0 {
		return nil
	}
	if parallelism <= 0 || len(files) < parallelism {
		return [][]string{files}
	}

	chunkSize := max(1, len(files)/parallelism)
	chunks := make([][]string, 0, (len(files)+chunkSize-1)/chunkSize)
	for start := 0; start < len(files); start += chunkSize {
		end := min(start+chunkSize, len(files))
		chunks = append(chunks, files[start:end:end])
	}
	return chunks
}
