// Package logtail reads the tail of the varlens log file.
//
// # Overview
//
// The TUI owns the terminal, so varlens writes its zap log as JSON lines to
// the configured log_file. The `varlens logs` command uses this package to
// show the most recent entries without loading the whole file:
//
//	entries, err := logtail.Read(path, 200, zapcore.WarnLevel)
//
// # Reading
//
// Read scans the file once and keeps the last n matching entries in a ring
// buffer, so memory is bounded by n rather than the file size. Entries are
// returned oldest first. A missing file is not an error; the log simply has
// not been written yet.
//
// # Decoding
//
// Parse understands the zap production encoder: ts (epoch seconds), level,
// logger, msg and caller, with every other key collected into Fields. Lines
// that are not JSON are kept as info-level entries so hand-edited or
// truncated files still display.
package logtail
