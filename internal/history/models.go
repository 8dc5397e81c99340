package history

import (
	"encoding/json"
	"fmt"
	"time"

	"credence/internal/credential"
)

// Entry is one recorded scan.
type Entry struct {
	ID            int64
	ScanID        string
	Source        string
	Outcome       credential.Outcome
	MIME          string
	Identifier    string
	Schema        string
	TrustWarning  string
	DecoderNote   string
	DetectionJSON string
	StartedAt     time.Time
	FinishedAt    time.Time
	CreatedAt     time.Time
}

// Detection re-hydrates the full detection this entry was recorded from.
func (e *Entry) Detection() (*credential.Detection, error) {
	var detection credential.Detection
	if err := json.Unmarshal([]byte(e.DetectionJSON), &detection); err != nil {
		return nil, fmt.Errorf("decode recorded detection %s: %w", e.ScanID, err)
	}
	return &detection, nil
}
