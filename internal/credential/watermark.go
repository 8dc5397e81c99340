package credential

import (
	"net/url"
	"strings"
)

// Schema names the error-correction profile a watermark payload was encoded
// with, in decreasing correction strength and increasing data capacity.
type Schema string

const (
	SchemaMax     Schema = "MAX"
	SchemaHigh    Schema = "HIGH"
	SchemaMedium  Schema = "MEDIUM"
	SchemaLow     Schema = "LOW"
	SchemaUnknown Schema = "UNKNOWN"
)

// decoder-wire schema tags, strongest correction first
var schemaTags = map[string]Schema{
	"BCH_SUPER": SchemaMax,
	"BCH_5":     SchemaHigh,
	"BCH_4":     SchemaMedium,
	"BCH_3":     SchemaLow,
	"MAX":       SchemaMax,
	"HIGH":      SchemaHigh,
	"MEDIUM":    SchemaMedium,
	"LOW":       SchemaLow,
}

// SchemaFromTag maps a decoder schema tag onto the canonical schema names.
// Unrecognized tags map to SchemaUnknown; callers keep the raw tag for
// diagnostics.
func SchemaFromTag(tag string) Schema {
	if schema, ok := schemaTags[strings.ToUpper(strings.TrimSpace(tag))]; ok {
		return schema
	}
	return SchemaUnknown
}

// WatermarkPayload is the decoded pixel watermark: a fixed-length bit payload
// mapped 1:1 to an identifier string. ManifestURL is populated iff the
// identifier parses as an absolute http(s) URL.
type WatermarkPayload struct {
	Identifier  string `json:"identifier"`
	Schema      Schema `json:"schema"`
	RawBits     string `json:"rawBits,omitempty"`
	ManifestURL string `json:"manifestUrl,omitempty"`
}

// NewWatermarkPayload builds a payload, deriving ManifestURL from the
// identifier rather than trusting any value the decoder reported.
func NewWatermarkPayload(identifier, rawBits string, schema Schema) WatermarkPayload {
	payload := WatermarkPayload{
		Identifier: identifier,
		Schema:     schema,
		RawBits:    rawBits,
	}
	if u, err := url.Parse(identifier); err == nil && u.Host != "" &&
		(u.Scheme == "http" || u.Scheme == "https") {
		payload.ManifestURL = identifier
	}
	return payload
}
