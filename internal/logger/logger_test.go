package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesDailyFile(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	root := t.TempDir()
	log, err := New(root, false, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("route resolved", "node", 1001)
	_ = log.Sync()

	path := filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("log file is empty")
	}
}
