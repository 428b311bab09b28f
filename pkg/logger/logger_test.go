package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		Init(level)
		if Log == nil {
			t.Errorf("Init(%s) should set Log", level)
		}
	}
}

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "json stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
		{
			name: "text stderr",
			config: Config{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithConfig(tt.config)
			if Log == nil {
				t.Error("Log should not be nil")
			}
		})
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "report-svc.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})

	if Log == nil {
		t.Fatal("Log should not be nil")
	}

	Log.Info("export completed", "report_id", "r-1", "format", "xlsx")

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
}

func TestInitWithConfig_FileOutputInvalidDir(t *testing.T) {
	// При недоступном каталоге логгер падает обратно на stdout
	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: "/nonexistent/deeply/nested/dir/report-svc.log",
	})

	if Log == nil {
		t.Error("Log should not be nil even with invalid path")
	}
}

func TestLoggingFunctions(t *testing.T) {
	Init("debug")

	// Не должны паниковать
	Debug("claiming report", "report_id", "r-1")
	Info("rendering started", "format", "csv")
	Warn("dedup cache unavailable", "error", "connection refused")
	Error("render failed", "error", "row source closed")
}

func TestWithRequestID(t *testing.T) {
	Init("info")

	if WithRequestID("req-123") == nil {
		t.Error("WithRequestID should return logger")
	}
}

func TestWithReport(t *testing.T) {
	Init("info")

	if WithReport("3f2a1b") == nil {
		t.Error("WithReport should return logger")
	}
}

func TestWithComponent(t *testing.T) {
	Init("info")

	if WithComponent("worker-pool") == nil {
		t.Error("WithComponent should return logger")
	}
}
