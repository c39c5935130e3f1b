package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	debugLogger *log.Logger
	logFile     *os.File
	mu          sync.Mutex
	isSetup     bool
)

// SetupLogger initializes the debug logger with the specified log file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	debugLogger = log.New(logFile, "", log.LstdFlags)
	debugLogger.Printf("--- imagededup debug log started at %s ---\n", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetupWriter routes debug output to w instead of a file
func SetupWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	debugLogger = log.New(w, "", log.LstdFlags)
	isSetup = true
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		debugLogger.Printf("--- imagededup debug log closed at %s ---\n", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil
	isSetup = false
}

// Enabled reports whether debug logging is active
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugLogger != nil
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("INFO: "+format, args...)
	} else {
		// Fallback to standard output if logger is not set up
		log.Printf("INFO: "+format, args...)
	}
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}

// LogError logs an error message. Errors always reach the standard logger
// when no debug log is configured.
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("ERROR: "+format, args...)
	} else {
		log.Printf("ERROR: "+format, args...)
	}
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("WARNING: "+format, args...)
	}
}

// LogDuplicateRemoved logs a removed duplicate and the image it matched
func LogDuplicateRemoved(path, keptPath string, ratio float64) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("REMOVED: %s (duplicate of %s, difference %.4f)", path, keptPath, ratio)
	}
}

// LogImageSkipped logs an image that could not be decoded
func LogImageSkipped(path string, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if debugLogger != nil {
		debugLogger.Printf("SKIPPED: %s - Error: %s", path, errMsg)
	}
}
