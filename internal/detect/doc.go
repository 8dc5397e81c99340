// Package detect runs the waterfall credential detection for one input.
//
// The orchestrator validates the input, makes sure the trust bootstrap has
// been attempted, checks for an embedded manifest, and only if that stage
// resolves empty consults the watermark decoder. An embedded manifest is
// authoritative when present: the watermark stage is skipped entirely and an
// embedded result is never overwritten. Decoder failures degrade to a
// no-credentials outcome with the detail kept in diagnostics; only input
// errors and unrecognized reader failures propagate to the caller.
package detect
