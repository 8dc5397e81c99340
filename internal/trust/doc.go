// Package trust bootstraps the manifest engine's trust configuration.
//
// Three remote artifacts (trust anchors PEM, allowed-certificate list, trust
// policy) are fetched once per process and handed to the engine before the
// first manifest read. The bootstrap is deliberately availability-first:
// every fetch failure is isolated, a missing document is passed to the
// engine as absent, and nothing here ever blocks a read. The whole sequence
// runs at most once; concurrent first callers share one in-flight attempt
// and a process restart is the only retry mechanism.
package trust
