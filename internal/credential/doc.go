// Package credential defines the shared data model for the detection
// pipeline: the raw manifest union produced by the reader adapter, the
// normalized manifest record, the decoded watermark payload, and the terminal
// detection result.
//
// All types are created per scan, are treated as immutable after
// construction, and carry no behaviour beyond construction helpers. The
// normalizer, orchestrator, presenter, and history store all speak these
// shapes; nothing here touches an external engine.
package credential
