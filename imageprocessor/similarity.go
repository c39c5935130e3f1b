package imageprocessor

import (
	"errors"
	"fmt"

	"imagededup/logging"

	"gocv.io/x/gocv"
)

// RequiredChannels is the channel count every compared image must have
const RequiredChannels = 3

// ratioTolerance absorbs rounding in 1-threshold, so that exactly 10%
// differing values still match at a 0.9 threshold
const ratioTolerance = 1e-12

// ErrMalformedImage is returned by ValidateShape for images that cannot be
// compared
var ErrMalformedImage = errors.New("malformed image")

// ValidateShape checks that img is non-empty and has exactly three channels
func ValidateShape(img gocv.Mat) error {
	if img.Empty() || img.Rows() == 0 || img.Cols() == 0 {
		return fmt.Errorf("%w: empty matrix", ErrMalformedImage)
	}
	if img.Channels() != RequiredChannels {
		return fmt.Errorf("%w: unexpected channel count %d (%dx%d)",
			ErrMalformedImage, img.Channels(), img.Rows(), img.Cols())
	}
	return nil
}

// SameShape reports whether a and b have the same rows, cols, channels and
// element type
func SameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() &&
		a.Cols() == b.Cols() &&
		a.Channels() == b.Channels() &&
		a.Type() == b.Type()
}

// DifferenceRatio returns the fraction of matrix elements, counted over all
// channels, whose values differ between a and b. ok is false when the two
// images are malformed or differ in shape; no ratio is defined then.
func DifferenceRatio(a, b gocv.Mat) (ratio float64, ok bool) {
	if ValidateShape(a) != nil || ValidateShape(b) != nil || !SameShape(a, b) {
		return 0, false
	}

	total := a.Total() * a.Channels()
	if total == 0 {
		return 0, false
	}
	differing, err := differingElements(a, b)
	if err != nil {
		logging.LogWarning("Not comparing images: %v", err)
		return 0, false
	}
	return float64(differing) / float64(total), true
}

// differingElements counts the matrix elements, over all channels, whose
// values differ between a and b
func differingElements(a, b gocv.Mat) (int, error) {
	mask := gocv.NewMat()
	defer mask.Close()
	if err := gocv.Compare(a, b, &mask, gocv.CompareNE); err != nil {
		return 0, fmt.Errorf("compare failed: %w", err)
	}
	if mask.Empty() {
		return 0, errors.New("compare produced an empty mask")
	}

	// CountNonZero only accepts single-channel input
	flat := mask.Reshape(1, 0)
	defer flat.Close()
	if flat.Empty() {
		return 0, errors.New("cannot reshape comparison mask")
	}
	return gocv.CountNonZero(flat), nil
}

// IsDuplicate reports whether a and b are duplicates under threshold, a
// minimum similarity in [0,1]. Images are duplicates when the share of
// differing elements is at most 1-threshold, boundary included. The comparison is exact: any
// shift, crop or recompression counts as a difference.
//
// Malformed images never match. Images of different dimensions never match.
func IsDuplicate(a, b gocv.Mat, threshold float64) bool {
	_, duplicate := Match(a, b, threshold)
	return duplicate
}

// Match is IsDuplicate that also returns the difference ratio it decided on
func Match(a, b gocv.Mat, threshold float64) (float64, bool) {
	if err := ValidateShape(a); err != nil {
		logging.LogWarning("Not comparing image: %v", err)
		return 0, false
	}
	if err := ValidateShape(b); err != nil {
		logging.LogWarning("Not comparing image: %v", err)
		return 0, false
	}

	ratio, ok := DifferenceRatio(a, b)
	if !ok {
		return 0, false
	}
	return ratio, ratio <= 1-threshold+ratioTolerance
}
