package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
	}
	return entry
}

func TestLogger_IncludesComputeFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithCompute(ComputeMeta{Algorithm: "sieve-of-eratosthenes", Start: 2, Limit: 150}).
		Info(context.Background(), "test message")

	entry := decodeLine(t, buf.String())
	if v := entry[AttrAlgorithm]; v != "sieve-of-eratosthenes" {
		t.Errorf("%s = %v, want sieve-of-eratosthenes", AttrAlgorithm, v)
	}
	if v := entry[AttrLimit]; v != "150" {
		t.Errorf("%s = %v, want 150", AttrLimit, v)
	}
	if v := entry["msg"]; v != "test message" {
		t.Errorf("msg = %v, want test message", v)
	}
	if v := entry["level"]; v != "info" {
		t.Errorf("level = %v, want info", v)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_WithComputeDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithCompute(ComputeMeta{Algorithm: "trial-division"})
	logger.Info(context.Background(), "plain")

	if strings.Contains(buf.String(), AttrAlgorithm) {
		t.Errorf("parent logger picked up compute attributes: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{level: "debug", want: []string{"debug", "info", "warn", "error"}},
		{level: "info", want: []string{"info", "warn", "error"}},
		{level: "warn", want: []string{"warn", "error"}},
		{level: "error", want: []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tt.level, &buf)
			ctx := context.Background()

			logger.Debug(ctx, "d")
			logger.Info(ctx, "i")
			logger.Warn(ctx, "w")
			logger.Error(ctx, "e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %q", len(lines), len(tt.want), buf.String())
			}
			for i, line := range lines {
				if got := decodeLine(t, line)["level"]; got != tt.want[i] {
					t.Errorf("line %d level = %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "auth",
		Field{Key: "token", Value: "eyJhbGciOi"},
		Field{Key: "authorization", Value: "Bearer abc"},
		Field{Key: "client", Value: "10.0.0.1"},
	)

	entry := decodeLine(t, buf.String())
	for _, key := range []string{"token", "authorization"} {
		if entry[key] != "[REDACTED]" {
			t.Errorf("%s = %v, want [REDACTED]", key, entry[key])
		}
	}
	if entry["client"] != "10.0.0.1" {
		t.Errorf("client = %v, want 10.0.0.1", entry["client"])
	}
}

func TestLogger_ConcurrentWritesStayLineDelimited(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	scoped := logger.WithCompute(ComputeMeta{Algorithm: "trial-division"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); logger.Info(context.Background(), "a") }()
		go func() { defer wg.Done(); scoped.Info(context.Background(), "b") }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 40 {
		t.Fatalf("got %d lines, want 40", len(lines))
	}
	for _, line := range lines {
		decodeLine(t, line)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
