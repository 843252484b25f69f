// Package debug is the updater's diagnostic log. Failure details that the UI
// only summarizes ("check the console for more info") end up here.
//
// Logging is off unless --debug is passed. The log lives at
// ~/.repoup/debug.log and is truncated on each launch.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// LogFileName is the name of the debug log file.
	LogFileName = "debug.log"
	// LogDirName is the name of the directory containing the log file.
	LogDirName = ".repoup"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
	logFile *os.File

	// getLogPath is swapped out by tests.
	getLogPath = defaultGetLogPath
)

// Init enables or disables logging. When enabled the log file is
// created (or truncated) at the default path.
func Init(enable bool) error {
	if !enable {
		mu.Lock()
		defer mu.Unlock()
		enabled = false
		logger = log.New(io.Discard, "", 0)
		return nil
	}
	logPath, err := getLogPath()
	if err != nil {
		return fmt.Errorf("determine log path: %w", err)
	}
	return InitAt(logPath)
}

// InitAt enables logging to an explicit file path.
func InitAt(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	//nolint:gosec // G301: user config directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	//nolint:gosec // G304: log path comes from the user's home or an explicit flag
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	enabled = true
	logger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	logger.Printf("=== repoup debug log started at %s ===", time.Now().Format(time.RFC3339))
	return nil
}

// Close closes the log file if open. Safe to call when logging is disabled.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Log writes a message in the manner of fmt.Print.
func Log(v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return
	}
	logger.Print(v...)
}

// Logf writes a message in the manner of fmt.Printf.
func Logf(format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return
	}
	logger.Printf(format, v...)
}

// LogFailure records a failed helper operation. cmd and message may be empty.
func LogFailure(op, cmd, message string) {
	switch {
	case cmd != "" && message != "":
		Logf("%s failed: %s: %s", op, cmd, message)
	case cmd != "":
		Logf("%s failed: %s", op, cmd)
	case message != "":
		Logf("%s failed: %s", op, message)
	default:
		Logf("%s failed with an unknown error", op)
	}
}

// Enabled reports whether logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func defaultGetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath returns the default log file path.
func GetLogPath() (string, error) {
	return getLogPath()
}
