package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("popup opened", "attempt", "abc")

		if !strings.Contains(buf.String(), "popup opened") {
			t.Errorf("expected message in output, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "attempt=abc") {
			t.Errorf("expected key/value in output, got %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "auth")
		logger.Warn("timeout")

		if !strings.Contains(buf.String(), "component=auth") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "moodtunes.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("hello")

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file to exist: %v", err)
		}
		if !strings.Contains(string(content), "hello") {
			t.Error("expected log line in file")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"nonsense", log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsHeadless(t *testing.T) {
	restore := func(rt func() string, env func(string) string) {
		getRuntime = rt
		lookupEnv = env
	}
	defer restore(getRuntime, lookupEnv)

	fakeEnv := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tc := []struct {
		name string
		os   string
		vars map[string]string
		want bool
	}{
		{"ssh session", "darwin", map[string]string{"SSH_CONNECTION": "1.2.3.4 22"}, true},
		{"linux without display", "linux", map[string]string{}, true},
		{"linux with x11", "linux", map[string]string{"DISPLAY": ":0"}, false},
		{"linux with wayland", "linux", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, false},
		{"local mac", "darwin", map[string]string{}, false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			getRuntime = func() string { return tt.os }
			lookupEnv = fakeEnv(tt.vars)

			if got := IsHeadless(); got != tt.want {
				t.Errorf("IsHeadless() = %v, want %v", got, tt.want)
			}
		})
	}
}
