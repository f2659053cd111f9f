package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "under a minute", seconds: 42, want: "0:42"},
		{name: "minutes and seconds", seconds: 185, want: "3:05"},
		{name: "over an hour", seconds: 3725, want: "1:02:05"},
		{name: "negative clamps to zero", seconds: -10, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestLogger(t *testing.T) {
	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "store")
		logger.Info("created playlist")

		if !strings.Contains(buf.String(), "component=store") {
			t.Errorf("expected scoped field in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger appends to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "serve.log")

		for _, msg := range []string{"first", "second"} {
			logger, err := NewFileLogger(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			logger.Info(msg)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file, got %v", err)
		}
		if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
			t.Errorf("expected both entries, got %q", data)
		}
	})

	t.Run("EditableString", func(t *testing.T) {
		if EditableString(true) != "Editable" || EditableString(false) != "Read-only" {
			t.Error("unexpected editable labels")
		}
	})
}
