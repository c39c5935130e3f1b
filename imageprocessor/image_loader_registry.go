package imageprocessor

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"imagededup/logging"

	"github.com/spf13/afero"
	"gocv.io/x/gocv"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry whose loaders read from fs
func NewImageLoaderRegistry(fs afero.Fs) *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader(fs)
	for _, ext := range GetSupportedExtensions() {
		registry.RegisterLoader(ext, standardLoader)
	}

	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader for the given path, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	loader := r.GetLoader(path)
	return loader != nil && loader.CanLoad(path)
}

// LoadImage loads an image using the appropriate registered loader. A panic
// inside OpenCV is turned into an error so the caller can skip the file.
func (r *ImageLoaderRegistry) LoadImage(path string) (img gocv.Mat, err error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), fmt.Errorf("no suitable loader found for: %s", path)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", rec, path, string(debug.Stack()))
			img = gocv.NewMat()
			err = fmt.Errorf("panic during image loading: %v", rec)
		}
	}()

	return loader.LoadImage(path)
}
