package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"abcdefghij", 8, "abcde..."},
		{"abcd", 2, "ab"},
		{"anything", 0, ""},
		{"ünïcödé-name", 6, "ünï..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q, want %q", got, "ab  ")
	}
	if got := padRight("abcdefgh", 6); got != "abc..." {
		t.Fatalf("padRight overflow = %q, want %q", got, "abc...")
	}
	if got := padRight("x", 0); got != "" {
		t.Fatalf("padRight zero = %q, want empty", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("needs_review"); got != "Needs Review" {
		t.Fatalf("titleCase = %q, want Needs Review", got)
	}
	if got := titleCase("ACTIVE"); got != "Active" {
		t.Fatalf("titleCase = %q, want Active", got)
	}
}

func TestHumanizeAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero", time.Time{}, "-"},
		{"seconds", now.Add(-10 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
		{"old", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), "2023-01-02"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeAge(tc.at, now); got != tc.want {
				t.Fatalf("humanizeAge = %q, want %q", got, tc.want)
			}
		})
	}
}
