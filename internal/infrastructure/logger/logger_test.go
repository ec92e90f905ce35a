package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFormatsOutput(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		assertions func(t *testing.T, output string)
	}{
		{
			name:   "console format is human readable",
			format: "console",
			assertions: func(t *testing.T, output string) {
				if !strings.Contains(output, "hello") || strings.HasPrefix(output, "{") {
					t.Fatalf("expected console output, got %q", output)
				}
			},
		},
		{
			name:   "json format carries service and fields",
			format: "json",
			assertions: func(t *testing.T, output string) {
				var line map[string]any
				if err := json.Unmarshal([]byte(output), &line); err != nil {
					t.Fatalf("expected json output, got %q: %v", output, err)
				}
				if line["message"] != "hello" || line["service"] != "gesledger" || line["request_id"] != "req-1" {
					t.Fatalf("unexpected json fields: %v", line)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(Config{Format: tt.format, Level: "info", Service: "gesledger"}, &buf)
			log.Info().Str("request_id", "req-1").Msg("hello")

			if buf.Len() == 0 {
				t.Fatalf("expected log output, got empty string")
			}
			tt.assertions(t, buf.String())
		})
	}
}

func TestLevelFiltersLowerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Format: "json", Level: "warn"}, &buf)
	log.Info().Msg("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
}
