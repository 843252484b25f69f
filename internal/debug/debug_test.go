package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempLogPath(t *testing.T) string {
	t.Helper()
	resetForTest()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, LogDirName, LogFileName)
	origGetLogPath := getLogPath
	getLogPath = func() (string, error) {
		return logPath, nil
	}
	t.Cleanup(func() {
		getLogPath = origGetLogPath
		Close()
		resetForTest()
	})
	return logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestInit_Disabled(t *testing.T) {
	resetForTest()

	if err := Init(false); err != nil {
		t.Fatalf("Init(false) failed: %v", err)
	}
	if Enabled() {
		t.Error("Enabled() should return false when initialized with false")
	}

	// no-ops
	Log("test message")
	Logf("test %s", "formatted")
	LogFailure("update", "git pull", "boom")
}

func TestInit_Enabled(t *testing.T) {
	logPath := useTempLogPath(t)

	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}
	if !Enabled() {
		t.Error("Enabled() should return true when initialized with true")
	}

	Log("test message")
	Logf("test %s %d", "formatted", 42)

	content := readLog(t, logPath)
	for _, want := range []string{"repoup debug log started", "test message", "test formatted 42"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}

func TestInit_TruncatesExistingLog(t *testing.T) {
	logPath := useTempLogPath(t)

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		t.Fatalf("create log directory: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("old log content that should be truncated\n"), 0600); err != nil {
		t.Fatalf("write pre-existing log: %v", err)
	}

	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}

	content := readLog(t, logPath)
	if strings.Contains(content, "old log content") {
		t.Error("log file should have been truncated")
	}
}

func TestInitAt_ExplicitPath(t *testing.T) {
	resetForTest()
	t.Cleanup(func() {
		Close()
		resetForTest()
	})
	logPath := filepath.Join(t.TempDir(), "nested", "custom.log")

	if err := InitAt(logPath); err != nil {
		t.Fatalf("InitAt failed: %v", err)
	}
	Log("explicit")

	if content := readLog(t, logPath); !strings.Contains(content, "explicit") {
		t.Errorf("expected message in %s, got:\n%s", logPath, content)
	}
}

func TestLogFailure(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		message string
		want    string
	}{
		{"command and message", "git pull --ff-only", "not a fast-forward", "update failed: git pull --ff-only: not a fast-forward"},
		{"command only", "git fetch origin", "", "update failed: git fetch origin"},
		{"message only", "", "timeout", "update failed: timeout"},
		{"neither", "", "", "update failed with an unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath := useTempLogPath(t)
			if err := Init(true); err != nil {
				t.Fatalf("Init(true) failed: %v", err)
			}

			LogFailure("update", tt.cmd, tt.message)

			if content := readLog(t, logPath); !strings.Contains(content, tt.want) {
				t.Errorf("log missing %q:\n%s", tt.want, content)
			}
		})
	}
}

func TestClose(t *testing.T) {
	useTempLogPath(t)

	if err := Init(true); err != nil {
		t.Fatalf("Init(true) failed: %v", err)
	}

	Close()
	Close()
}

func TestGetLogPath(t *testing.T) {
	path, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath() failed: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(LogDirName, LogFileName)) {
		t.Errorf("GetLogPath() = %q, want suffix %q", path, filepath.Join(LogDirName, LogFileName))
	}
}

func resetForTest() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	enabled = false
	logger = nil
}
