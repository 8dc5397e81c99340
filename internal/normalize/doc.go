// Package normalize converts raw manifest output into the unified credential
// model.
//
// Two independent strategies exist, selected by the raw tag decided at the
// reader adapter boundary. The structured strategy walks the JSON
// manifest-collection exactly; the text strategy is a legacy fallback that
// applies best-effort pattern extraction to free-form reports and may under-
// or over-match. Output is tagged with its source kind so downstream
// consumers can weight confidence accordingly. Both strategies are pure
// functions: normalizing the same input twice yields identical output, and
// sections with no source data stay absent rather than empty.
package normalize
