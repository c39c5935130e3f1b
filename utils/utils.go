package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetDefaultDatabasePath returns the default path for the removal journal
func GetDefaultDatabasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "imagededup.db"
	}
	return filepath.Join(filepath.Dir(exePath), "imagededup.db")
}

// ParseThreshold parses a similarity percentage such as "95" or "97.5%"
// and returns it as a fraction in [0,1]
func ParseThreshold(percentage string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(percentage), "%")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid similarity percentage %q", percentage)
	}
	return PercentToThreshold(value)
}

// PercentToThreshold validates a percentage in [0,100] and converts it to a
// fraction
func PercentToThreshold(percent float64) (float64, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, fmt.Errorf("similarity percentage must be between 0 and 100, got %v", percent)
	}
	return percent / 100, nil
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
