package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap/zapcore"
)

// Entry is one decoded line of the varlens JSON log.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Fields  map[string]any
	// Raw is the undecoded line.
	Raw string
}

// reserved keys written by the zap production encoder.
var reserved = map[string]bool{"ts": true, "level": true, "logger": true, "msg": true, "caller": true, "stacktrace": true}

// Parse decodes one log line. Lines that are not JSON objects are kept as
// info-level entries whose message is the whole line.
func Parse(line string) Entry {
	e := Entry{Level: zapcore.InfoLevel, Message: line, Raw: line}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return e
	}
	if lvl, err := zapcore.ParseLevel(cast.ToString(raw["level"])); err == nil {
		e.Level = lvl
	}
	e.Time = parseTS(raw["ts"])
	e.Logger = cast.ToString(raw["logger"])
	e.Message = cast.ToString(raw["msg"])
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = v
	}
	return e
}

// parseTS accepts epoch seconds and ISO 8601 strings.
func parseTS(v any) time.Time {
	switch ts := v.(type) {
	case nil:
		return time.Time{}
	case float64:
		sec := int64(ts)
		return time.Unix(sec, int64((ts-float64(sec))*1e9)).UTC()
	default:
		t, err := cast.ToTimeE(ts)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	}
}

// String renders e on one line with its fields in key order.
func (e Entry) String() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level.CapitalString())
	if e.Logger != "" {
		b.WriteString(" [" + e.Logger + "]")
	}
	b.WriteString(" " + e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Read returns the last n entries of the log at path whose level is at
// least minLevel. n <= 0 returns every matching entry. A missing file yields no
// entries and no error.
func Read(path string, n int, minLevel zapcore.Level) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var (
		ring  []Entry
		idx   int
		count int
	)
	if n > 0 {
		ring = make([]Entry, n)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Parse(line)
		if e.Level < minLevel {
			continue
		}
		if n <= 0 {
			ring = append(ring, e)
			count++
			continue
		}
		ring[idx] = e
		idx = (idx + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if n <= 0 || count < n {
		return ring[:count], nil
	}
	out := make([]Entry, count)
	for i := range out {
		out[i] = ring[(idx+i)%n]
	}
	return out, nil
}
