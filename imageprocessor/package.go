// Package imageprocessor loads candidate images into gocv matrices and
// decides whether two decoded images are duplicates.
package imageprocessor

import "gocv.io/x/gocv"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage loads and returns the image as a 3-channel BGR matrix
	LoadImage(path string) (gocv.Mat, error)
}
