package credential

import "time"

// Outcome is the terminal classification of one detection scan.
type Outcome string

const (
	// OutcomeNone means both stages resolved and neither found a credential.
	OutcomeNone Outcome = "none"
	// OutcomeEmbedded means the embedded manifest stage found a credential.
	// The watermark stage never ran.
	OutcomeEmbedded Outcome = "embedded"
	// OutcomeWatermarked means the watermark stage found a payload after the
	// embedded stage came up empty.
	OutcomeWatermarked Outcome = "watermarked"
)

// Diagnostics carries per-scan observability data. Degraded adapter errors
// land here instead of failing the scan.
type Diagnostics struct {
	ScanID       string    `json:"scanId"`
	Source       string    `json:"source"`
	MIME         string    `json:"mime,omitempty"`
	TrustWarning string    `json:"trustWarning,omitempty"`
	ReaderNote   string    `json:"readerNote,omitempty"`
	DecoderNote  string    `json:"decoderNote,omitempty"`
	InstallHint  string    `json:"installHint,omitempty"`
	SchemaTag    string    `json:"schemaTag,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Detection is the orchestrator's terminal output. Manifest and Watermark
// are mutually exclusive: the waterfall never runs the watermark stage once
// an embedded manifest is found and never overwrites an embedded result.
type Detection struct {
	Outcome     Outcome           `json:"outcome"`
	Manifest    *Manifest         `json:"manifest,omitempty"`
	Watermark   *WatermarkPayload `json:"watermark,omitempty"`
	Diagnostics Diagnostics       `json:"diagnostics"`
}
