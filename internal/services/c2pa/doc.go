// Package c2pa wraps the external embedded-manifest verification engine.
//
// The engine is invoked as a command-line tool. Its stdout is either a JSON
// manifest-collection object (keyed by manifest id with an active-manifest
// pointer) or a free-form detailed text report; the adapter preserves that
// distinction as a tagged union and never coerces one shape into the other.
// A recognized "no manifest" sentinel on either output stream is reported as
// services.ErrNoManifest so callers can distinguish determined absence from
// an execution failure.
//
// Trust configuration (anchor PEM, allowed-certificate list, trust policy,
// verification toggles) is handed to the engine per invocation via flags;
// the trust bootstrap owns fetching those artifacts.
package c2pa
