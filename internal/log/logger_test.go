package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentLoggerTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewJSON("debug", &buf), "discord")
	logger.Info().Str("channel", "general").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "discord" || entry["channel"] != "general" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLevelFiltersEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON("warn", &buf)
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info entry written at warn level: %s", buf.String())
	}
}
