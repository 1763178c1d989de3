package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestConsoleLevels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantInfo  bool
		wantDebug bool
	}{
		{"default", Options{}, false, false},
		{"verbose", Options{Verbose: true}, true, false},
		{"debug", Options{Debug: true}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Console = &buf
			log, err := New(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			log.Debug("debug line")
			log.Info("info line")
			log.Warn("warn line")
			_ = log.Close()

			out := buf.String()
			if !strings.Contains(out, "warn line") {
				t.Error("warnings must always be logged")
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestFileCoreWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codespectre.log")
	var console bytes.Buffer
	log, err := New(Options{Console: &console, File: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatal(err)
	}
	log.Info("scan finished", zap.Int("files", 10))
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(console.String(), "scan finished") {
		t.Error("info must not reach the default console")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON lines: %v\n%s", err, data)
	}
	if entry["msg"] != "scan finished" || entry["files"] != float64(10) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("discarded")
	if err := log.Close(); err != nil {
		t.Error(err)
	}
}
