package credential

// SourceKind records which extraction strategy produced a normalized
// manifest. Text-derived fields are best-effort and deserve lower confidence
// downstream.
type SourceKind string

const (
	// SourceStructured marks exact extraction from a JSON manifest.
	SourceStructured SourceKind = "structured"
	// SourceText marks best-effort pattern extraction from a text report.
	SourceText SourceKind = "text"
)

// Creator identifies one party credited in a manifest.
type Creator struct {
	Name          string   `json:"name,omitempty"`
	ProfileURL    string   `json:"profileUrl,omitempty"`
	Verified      bool     `json:"verified,omitempty"`
	SocialHandles []string `json:"socialHandles,omitempty"`
}

// Action is one provenance action entry. Ordering is preserved from the
// source manifest; the pipeline never sorts actions.
type Action struct {
	Action        string `json:"action"`
	SoftwareAgent string `json:"softwareAgent,omitempty"`
	When          string `json:"when,omitempty"`
	Parameters    string `json:"parameters,omitempty"`
}

// GenerativeInfo captures generative-AI assertions. Absent entirely when the
// manifest carries no generative claim.
type GenerativeInfo struct {
	Generative      bool   `json:"generative,omitempty"`
	UsedForTraining bool   `json:"usedForTraining,omitempty"`
	Model           string `json:"model,omitempty"`
	Version         string `json:"version,omitempty"`
}

// CredentialMeta describes who signed the manifest and when. At most one of
// Signer and SignedBy is populated: the signer common name is preferred, the
// issuer field is the fallback.
type CredentialMeta struct {
	Signer    string `json:"signer,omitempty"`
	SignedBy  string `json:"signedBy,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Certificate carries the signing certificate fields a manifest exposes.
type Certificate struct {
	Issuer    string `json:"issuer,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Serial    string `json:"serial,omitempty"`
	NotBefore string `json:"notBefore,omitempty"`
	NotAfter  string `json:"notAfter,omitempty"`
}

// Validation holds certificate details and human-readable trust notes
// gathered from the engine's validation output.
type Validation struct {
	Certificate *Certificate `json:"certificate,omitempty"`
	TrustNotes  []string     `json:"trustNotes,omitempty"`
}

// Manifest is the unified, normalized view of an embedded manifest. Sections
// with no source data stay nil or zero so the presenter can skip them.
type Manifest struct {
	Creators   []Creator       `json:"creators,omitempty"`
	Actions    []Action        `json:"actions,omitempty"`
	Generative *GenerativeInfo `json:"generativeInfo,omitempty"`
	Meta       CredentialMeta  `json:"credentialMeta"`
	Validation Validation      `json:"validation"`
	Source     SourceKind      `json:"sourceKind"`
}

// Empty reports whether the manifest carries no extractable detail at all.
// An empty manifest still counts as a found credential: absence of detail is
// not absence of the credential itself.
func (m *Manifest) Empty() bool {
	if m == nil {
		return true
	}
	return len(m.Creators) == 0 &&
		len(m.Actions) == 0 &&
		m.Generative == nil &&
		m.Meta == (CredentialMeta{}) &&
		m.Validation.Certificate == nil &&
		len(m.Validation.TrustNotes) == 0
}
