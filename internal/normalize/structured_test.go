package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"credence/internal/credential"
)

func decodeManifest(t *testing.T, payload string) credential.Raw {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return credential.NewJSON(obj)
}

const structuredFixture = `{
  "active_manifest": "urn:uuid:abc",
  "manifests": {
    "urn:uuid:abc": {
      "claim_generator_info": [
        {"name": "Adobe Photoshop", "version": "25.1"}
      ],
      "assertions": [
        {
          "label": "stds.schema-org.CreativeWork",
          "data": {
            "author": [
              {"@type": "Person", "name": "Jane Doe", "url": "https://www.linkedin.com/in/jdoe", "identifier": "linkedin:jdoe"}
            ]
          }
        },
        {
          "label": "c2pa.actions",
          "data": {
            "actions": [
              {"action": "c2pa.created", "softwareAgent": "Adobe Photoshop", "when": "2024-03-01T10:00:00Z"},
              {"action": "c2pa.opened"}
            ]
          }
        }
      ],
      "signature_info": {
        "common_name": "Adobe Inc.",
        "issuer": "DigiCert Assured ID",
        "cert_serial_number": "112233",
        "time": "2024-03-01T10:00:05Z"
      }
    }
  },
  "validation_status": [
    {"code": "signingCredential.trusted", "explanation": "signing credential is on the trust list"}
  ]
}`

func TestStructuredExtraction(t *testing.T) {
	m := Manifest(decodeManifest(t, structuredFixture))

	if m.Source != credential.SourceStructured {
		t.Fatalf("expected structured source kind, got %q", m.Source)
	}

	if len(m.Creators) != 2 {
		t.Fatalf("expected verified creator plus generator, got %+v", m.Creators)
	}
	first := m.Creators[0]
	if !first.Verified || first.Name != "Jane Doe" || first.ProfileURL != "https://www.linkedin.com/in/jdoe" {
		t.Fatalf("verified identity must sort first, got %+v", first)
	}
	if m.Creators[1].Name != "Adobe Photoshop 25.1" {
		t.Fatalf("expected version-derived generator identity, got %+v", m.Creators[1])
	}

	if len(m.Actions) != 2 {
		t.Fatalf("expected two actions, got %+v", m.Actions)
	}
	if m.Actions[0].Action != "c2pa.created" || m.Actions[0].SoftwareAgent != "Adobe Photoshop" {
		t.Fatalf("unexpected first action %+v", m.Actions[0])
	}
	if m.Actions[1].Action != "c2pa.opened" || m.Actions[1].SoftwareAgent != "" {
		t.Fatalf("second action must keep source order with absent agent, got %+v", m.Actions[1])
	}

	if m.Meta.Signer != "Adobe Inc." {
		t.Fatalf("signer common name preferred, got %+v", m.Meta)
	}
	if m.Meta.SignedBy != "" {
		t.Fatal("issuer fallback must stay empty when the common name exists")
	}
	if m.Meta.Timestamp != "2024-03-01T10:00:05Z" {
		t.Fatalf("unexpected signing time %q", m.Meta.Timestamp)
	}

	if m.Validation.Certificate == nil || m.Validation.Certificate.Serial != "112233" {
		t.Fatalf("expected certificate serial, got %+v", m.Validation.Certificate)
	}
	if len(m.Validation.TrustNotes) != 1 || m.Validation.TrustNotes[0] != "signing credential is on the trust list" {
		t.Fatalf("expected validation explanation in trust notes, got %+v", m.Validation.TrustNotes)
	}
}

func TestStructuredIssuerFallback(t *testing.T) {
	m := Manifest(decodeManifest(t, `{
	  "active_manifest": "m1",
	  "manifests": {"m1": {"signature_info": {"issuer": "Example CA"}}}
	}`))
	if m.Meta.Signer != "" || m.Meta.SignedBy != "Example CA" {
		t.Fatalf("expected issuer fallback only, got %+v", m.Meta)
	}
}

func TestStructuredGenerative(t *testing.T) {
	m := Manifest(decodeManifest(t, `{
	  "active_manifest": "m1",
	  "manifests": {"m1": {"assertions": [
	    {"label": "c2pa.ai_generative_training", "data": {"use": "notAllowed", "model_name": "imagegen", "model_version": "3.1"}}
	  ]}}
	}`))
	if m.Generative == nil {
		t.Fatal("expected generative info")
	}
	if !m.Generative.Generative {
		t.Fatal("generative assertion must set the flag")
	}
	if m.Generative.UsedForTraining {
		t.Fatal("notAllowed use must not mark training")
	}
	if m.Generative.Model != "imagegen" || m.Generative.Version != "3.1" {
		t.Fatalf("unexpected model details %+v", m.Generative)
	}
}

func TestStructuredNoGenerativeSection(t *testing.T) {
	m := Manifest(decodeManifest(t, `{
	  "active_manifest": "m1",
	  "manifests": {"m1": {}}
	}`))
	if m.Generative != nil {
		t.Fatal("absent generative assertion must leave the section nil")
	}
}

func TestStructuredEmptyManifestStillNormalizes(t *testing.T) {
	m := Manifest(decodeManifest(t, `{"active_manifest": "m1", "manifests": {"m1": {}}}`))
	if m == nil {
		t.Fatal("empty manifest must normalize to an empty record, not nil")
	}
	if !m.Empty() {
		t.Fatalf("expected empty record, got %+v", m)
	}
	if m.Source != credential.SourceStructured {
		t.Fatalf("expected structured tag, got %q", m.Source)
	}
}

func TestStructuredDanglingPointerSingleEntry(t *testing.T) {
	m := Manifest(decodeManifest(t, `{
	  "active_manifest": "missing",
	  "manifests": {"m1": {"signature_info": {"common_name": "Solo"}}}
	}`))
	if m.Meta.Signer != "Solo" {
		t.Fatalf("single-entry collection should be used despite dangling pointer, got %+v", m.Meta)
	}
}

func TestStructuredActionParameters(t *testing.T) {
	m := Manifest(decodeManifest(t, `{
	  "active_manifest": "m1",
	  "manifests": {"m1": {"assertions": [
	    {"label": "c2pa.actions.v2", "data": {"actions": [
	      {"action": "c2pa.color_adjustments", "parameters": {"name": "brightness", "amount": 0.4}}
	    ]}}
	  ]}}
	}`))
	if len(m.Actions) != 1 {
		t.Fatalf("expected one action, got %+v", m.Actions)
	}
	params := m.Actions[0].Parameters
	if params == "" {
		t.Fatal("expected flattened parameters")
	}
	var round map[string]any
	if err := json.Unmarshal([]byte(params), &round); err != nil {
		t.Fatalf("parameters must stay parseable JSON: %v", err)
	}
	if round["name"] != "brightness" {
		t.Fatalf("unexpected parameters %v", round)
	}
}

func TestStructuredIdempotent(t *testing.T) {
	raw := decodeManifest(t, structuredFixture)
	first := Manifest(raw)
	second := Manifest(raw)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("normalizer must be byte-identical across runs:\n%s\n%s", a, b)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("normalizer output must be deeply equal across runs")
	}
}
