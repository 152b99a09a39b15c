package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %v", log.GetLevel())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("record appended")

	if !strings.Contains(buf.String(), "record appended") {
		t.Errorf("Expected output to contain message, got: %s", buf.String())
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zerolog.Level
		wantJSON  bool
	}{
		{name: "json debug", level: "debug", format: "json", wantLevel: zerolog.DebugLevel, wantJSON: true},
		{name: "console warn", level: "WARN", format: "console", wantLevel: zerolog.WarnLevel},
		{name: "unknown level", level: "loud", format: "json", wantLevel: zerolog.InfoLevel, wantJSON: true},
		{name: "empty level", level: "", format: "", wantLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewFromConfig(tt.level, tt.format, buf)
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}

			log.WithLevel(zerolog.ErrorLevel).Msg("boom")
			isJSON := strings.HasPrefix(strings.TrimSpace(buf.String()), "{")
			if isJSON != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	ctxLog := FromContext(ctx)

	ctxLog.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"record_id": "abc",
		"tier":      "enriched",
	})
	log.Info().Msg("parsed")

	output := buf.String()
	for _, want := range []string{"record_id", "abc", "tier", "enriched"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}
}
