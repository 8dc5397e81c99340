// Package services defines shared utilities consumed by the detection
// pipeline and the external engine adapters.
//
// Key responsibilities:
//   - Context helpers that stamp scan identifiers and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that classify adapter
//     failures into the pipeline's error taxonomy (fatal input errors,
//     recognized absences, degraded external-tool failures).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the waterfall.
package services
