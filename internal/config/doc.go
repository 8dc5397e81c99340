// Package config loads, normalizes, and validates Credence configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CREDENCE_TRUST_ANCHORS_URL. The Config type centralizes every knob the CLI
// needs: trust-list endpoints, the manifest engine binary, the watermark
// decoder runtime, and history/log locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical timeouts, and clear validation errors.
package config
