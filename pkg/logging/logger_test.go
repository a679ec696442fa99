// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default returned nil")
	}
	if l.Slog() == nil {
		t.Fatal("Slog returned nil")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close on stderr-only logger: %v", err)
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "preflight-test",
		Quiet:   true,
	})

	l.Info("check complete", "file", "a.c", "findings", 3)
	l.Debug("probe dispatch", "probe", "json")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	name := "preflight-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "check complete" {
		t.Errorf("msg = %v, want %q", entry["msg"], "check complete")
	}
	if entry["service"] != "preflight-test" {
		t.Errorf("service = %v, want %q", entry["service"], "preflight-test")
	}
	if entry["file"] != "a.c" {
		t.Errorf("file = %v, want %q", entry["file"], "a.c")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter-test",
		Quiet:   true,
	})

	l.Debug("dropped")
	l.Info("dropped too")
	l.Warn("kept")
	l.Close()

	name := "filter-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Errorf("expected 1 log line, got %d", got)
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn line missing from log file")
	}
}

func TestWith(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "with-test",
		Quiet:   true,
	})

	child := l.With("run_id", "abc123")
	child.Info("message")
	l.Close()

	name := "with-test_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "abc123") {
		t.Error("derived logger attribute missing")
	}
}

func TestClose_Idempotent(t *testing.T) {
	l := New(Config{LogDir: t.TempDir(), Quiet: true})
	if err := l.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("~"); got != home {
		t.Errorf("expandPath(~) = %q", got)
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q", got)
	}
	if got := expandPath("~user/x"); got != "~user/x" {
		t.Errorf("expandPath(~user/x) = %q", got)
	}
}
