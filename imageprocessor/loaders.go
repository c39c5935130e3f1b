package imageprocessor

import (
	"fmt"

	"github.com/spf13/afero"
	"gocv.io/x/gocv"
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType

	// Fs is where image bytes are read from
	Fs afero.Fs
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

// DefaultLoadImage reads the file and decodes it with OpenCV in color mode,
// which always yields 8-bit BGR with three channels.
func (l *BaseImageLoader) DefaultLoadImage(path string) (gocv.Mat, error) {
	buf, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("cannot read %s: %w", path, err)
	}
	if len(buf) == 0 {
		return gocv.NewMat(), newImageLoadError("empty image file", path)
	}

	img, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), newImageLoadError("failed to decode image", path)
	}
	return img, nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
