// Package present renders detection results and scan history for the
// terminal. Sections with no data are skipped entirely so reports stay as
// short as the result allows. Color is applied only when the destination is
// a terminal.
package present
