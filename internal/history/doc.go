// Package history persists completed scans in a local SQLite database so
// earlier results can be listed and re-inspected without re-running the
// external engines. Recording is best-effort: a history failure never fails
// the scan that produced it.
package history
