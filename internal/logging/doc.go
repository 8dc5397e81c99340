// Package logging constructs the slog loggers used across Credence.
//
// It supports console and JSON output formats, honours the configured level,
// can tee output into the configured log directory, and exposes a nop logger
// for tests. Context helpers stamp standard fields (component, scan_id,
// stage) so every pipeline log line is attributable to one scan.
package logging
