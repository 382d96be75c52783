package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "varlens.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func messages(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestRead_Tail(t *testing.T) {
	var lines, all []string
	for i := 1; i <= 10; i++ {
		msg := fmt.Sprintf("line %d", i)
		lines = append(lines, fmt.Sprintf(`{"level":"info","ts":1714557600.5,"msg":%q}`, msg))
		all = append(all, msg)
	}
	path := writeLog(t, lines...)

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "all (0)", n: 0, want: all},
		{name: "all (negative)", n: -1, want: all},
		{name: "partial", n: 5, want: all[5:]},
		{name: "exact", n: 10, want: all},
		{name: "more than exists", n: 20, want: all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.n, zapcore.DebugLevel)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if diff := cmp.Diff(tt.want, messages(got)); diff != "" {
				t.Fatalf("Read mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_LevelFilterBeforeTail(t *testing.T) {
	path := writeLog(t,
		`{"level":"warn","msg":"first warning"}`,
		`{"level":"info","msg":"noise 1"}`,
		`{"level":"error","msg":"failure"}`,
		`{"level":"debug","msg":"noise 2"}`,
		`{"level":"info","msg":"noise 3"}`,
	)
	got, err := Read(path, 2, zapcore.WarnLevel)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff([]string{"first warning", "failure"}, messages(got)); diff != "" {
		t.Fatalf("filtered tail mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10, zapcore.InfoLevel)
	if err != nil || got != nil {
		t.Fatalf("Read missing = %v, %v; want nil, nil", got, err)
	}
}

func TestParse_ZapProductionLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zap.log")
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.Sampling = nil
	logger, err := cfg.Build()
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	logger.Named("refresh").Warn("refresh failed", zap.Int("failures", 3), zap.String("app_id", "app-1"))
	_ = logger.Sync()

	entries, err := Read(path, 0, zapcore.DebugLevel)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Logger != "refresh" || e.Message != "refresh failed" {
		t.Fatalf("entry = %+v", e)
	}
	if time.Since(e.Time) > time.Minute {
		t.Fatalf("Time = %v, want recent", e.Time)
	}
	want := map[string]any{"failures": float64(3), "app_id": "app-1"}
	if diff := cmp.Diff(want, e.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if s := e.String(); !strings.Contains(s, "WARN  [refresh] refresh failed app_id=app-1 failures=3") {
		t.Fatalf("String() = %q", s)
	}
}

func TestParse_PlainLine(t *testing.T) {
	e := Parse("not json at all")
	if e.Level != zapcore.InfoLevel || e.Message != "not json at all" || e.Fields != nil {
		t.Fatalf("Parse plain = %+v", e)
	}
	if got := e.String(); got != "INFO  not json at all" {
		t.Fatalf("String() = %q", got)
	}
}
