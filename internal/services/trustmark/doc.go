// Package trustmark wraps the external watermark decoding runtime.
//
// The decoder is a model-backed script invoked as
// `<runtime> <script> <path> <modelVariant>`; it prints one JSON reply to
// stdout shaped {success, hasWatermark, watermarkData?, error?}. Any other
// stdout content is diagnostic noise and is skipped. A missing runtime or
// script maps to services.ErrRuntimeUnavailable so the orchestrator can emit
// an actionable install hint; unparseable output maps to
// services.ErrMalformedReply. Both degrade the watermark stage to
// "not found" rather than failing a scan.
package trustmark
