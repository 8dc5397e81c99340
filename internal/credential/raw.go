package credential

// RawKind tags which underlying engine representation a raw manifest carries.
// The tag is decided exactly once, at the reader adapter boundary, and is
// never re-inferred deeper in the pipeline.
type RawKind int

const (
	// RawText is a free-form detailed text report from the engine.
	RawText RawKind = iota
	// RawJSON is a structured manifest-collection object.
	RawJSON
)

// Raw is the tagged union returned by the manifest reader adapter. Exactly
// one of Text or JSON is meaningful, selected by Kind.
type Raw struct {
	Kind RawKind
	Text string
	JSON map[string]any
}

// NewText wraps free-form engine output.
func NewText(text string) Raw {
	return Raw{Kind: RawText, Text: text}
}

// NewJSON wraps a structured manifest-collection object.
func NewJSON(obj map[string]any) Raw {
	return Raw{Kind: RawJSON, JSON: obj}
}
