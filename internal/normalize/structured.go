package normalize

import (
	"encoding/json"
	"strings"

	"credence/internal/credential"
)

// fromStructured extracts the unified record from a JSON manifest-collection
// object: dereference the active manifest, then walk generator info,
// assertions, signature info, and the validation status list.
func fromStructured(root map[string]any) *credential.Manifest {
	m := &credential.Manifest{Source: credential.SourceStructured}
	if root == nil {
		return m
	}

	manifest := activeManifest(root)
	if manifest != nil {
		extractGenerators(manifest, m)
		extractIdentity(manifest, m)
		extractActions(manifest, m)
		extractGenerative(manifest, m)
		extractSignature(manifest, m)
	}
	extractValidation(root, m)
	return m
}

func activeManifest(root map[string]any) map[string]any {
	manifests := mapValue(root, "manifests")
	if manifests == nil {
		return nil
	}
	if active := stringValue(root, "active_manifest"); active != "" {
		if manifest, ok := manifests[active].(map[string]any); ok {
			return manifest
		}
	}
	// A collection with a dangling pointer but a single entry is usable.
	if len(manifests) == 1 {
		for _, v := range manifests {
			if manifest, ok := v.(map[string]any); ok {
				return manifest
			}
		}
	}
	return nil
}

func extractGenerators(manifest map[string]any, m *credential.Manifest) {
	for _, entry := range sliceValue(manifest, "claim_generator_info") {
		info, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := stringValue(info, "name")
		if name == "" {
			continue
		}
		if version := stringValue(info, "version"); version != "" {
			name = name + " " + version
		}
		m.Creators = append(m.Creators, credential.Creator{Name: name})
	}
}

// extractIdentity reads the platform-verified identity assertion. The first
// qualifying author becomes the single verified creator and sorts first.
func extractIdentity(manifest map[string]any, m *credential.Manifest) {
	assertion := findAssertion(manifest, "stds.schema-org.CreativeWork")
	if assertion == nil {
		return
	}
	for _, entry := range sliceValue(assertion, "author") {
		author, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		profile := stringValue(author, "url")
		if profile == "" {
			profile = stringValue(author, "@id")
		}
		creator := credential.Creator{
			Name:       stringValue(author, "name"),
			ProfileURL: profile,
		}
		if handle := stringValue(author, "identifier"); handle != "" {
			creator.SocialHandles = append(creator.SocialHandles, handle)
		}
		if profile != "" && !hasVerifiedCreator(m) {
			creator.Verified = true
			m.Creators = append([]credential.Creator{creator}, m.Creators...)
			continue
		}
		if creator.Name != "" || creator.ProfileURL != "" || len(creator.SocialHandles) > 0 {
			m.Creators = append(m.Creators, creator)
		}
	}
}

func hasVerifiedCreator(m *credential.Manifest) bool {
	for _, c := range m.Creators {
		if c.Verified && c.ProfileURL != "" {
			return true
		}
	}
	return false
}

// extractActions flattens the actions assertion in source order. No sorting.
func extractActions(manifest map[string]any, m *credential.Manifest) {
	assertion := findAssertionPrefix(manifest, "c2pa.actions")
	if assertion == nil {
		return
	}
	for _, entry := range sliceValue(assertion, "actions") {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		action := credential.Action{
			Action: stringValue(record, "action"),
			When:   stringValue(record, "when"),
		}
		if action.Action == "" {
			continue
		}
		switch agent := record["softwareAgent"].(type) {
		case string:
			action.SoftwareAgent = agent
		case map[string]any:
			action.SoftwareAgent = stringValue(agent, "name")
			if version := stringValue(agent, "version"); version != "" && action.SoftwareAgent != "" {
				action.SoftwareAgent = action.SoftwareAgent + " " + version
			}
		}
		if params, ok := record["parameters"].(map[string]any); ok && len(params) > 0 {
			if encoded, err := json.Marshal(params); err == nil {
				action.Parameters = string(encoded)
			}
		} else if params, ok := record["parameters"].(string); ok {
			action.Parameters = params
		}
		m.Actions = append(m.Actions, action)
	}
}

func extractGenerative(manifest map[string]any, m *credential.Manifest) {
	info := credential.GenerativeInfo{}
	found := false

	for _, entry := range sliceValue(manifest, "assertions") {
		assertion, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label := stringValue(assertion, "label")
		if !strings.Contains(label, "c2pa.ai") {
			continue
		}
		found = true
		data := mapValue(assertion, "data")
		if data == nil {
			continue
		}
		if strings.Contains(label, "generative") {
			info.Generative = true
		}
		if strings.Contains(label, "training") {
			use := stringValue(data, "use")
			if use == "" || !strings.Contains(strings.ToLower(use), "notallowed") {
				info.UsedForTraining = true
			}
		}
		if model := firstString(data, "model_name", "model"); model != "" {
			info.Model = model
		}
		if version := firstString(data, "model_version", "version"); version != "" {
			info.Version = version
		}
	}

	// A trained-algorithmic-media source type on any action also marks the
	// asset as generative.
	for _, action := range m.Actions {
		if strings.Contains(action.Parameters, "trainedAlgorithmicMedia") {
			info.Generative = true
			found = true
		}
	}

	if found {
		m.Generative = &info
	}
}

func extractSignature(manifest map[string]any, m *credential.Manifest) {
	sig := mapValue(manifest, "signature_info")
	if sig == nil {
		return
	}

	// Signer common name preferred; issuer is the fallback, never both.
	if signer := stringValue(sig, "common_name"); signer != "" {
		m.Meta.Signer = signer
	} else if issuer := stringValue(sig, "issuer"); issuer != "" {
		m.Meta.SignedBy = issuer
	}
	m.Meta.Timestamp = stringValue(sig, "time")

	cert := credential.Certificate{
		Issuer:    firstString(sig, "cert_issuer", "issuer"),
		Subject:   firstString(sig, "cert_subject", "subject"),
		Serial:    firstString(sig, "cert_serial_number", "serial"),
		NotBefore: firstString(sig, "cert_not_before", "not_before"),
		NotAfter:  firstString(sig, "cert_not_after", "not_after"),
	}
	if cert != (credential.Certificate{}) {
		m.Validation.Certificate = &cert
	}
}

func extractValidation(root map[string]any, m *credential.Manifest) {
	for _, entry := range sliceValue(root, "validation_status") {
		status, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		note := stringValue(status, "explanation")
		if note == "" {
			note = stringValue(status, "code")
		}
		if note != "" {
			m.Validation.TrustNotes = append(m.Validation.TrustNotes, note)
		}
	}

	if results := mapValue(root, "validation_results"); results != nil {
		if active := mapValue(results, "activeManifest"); active != nil {
			for _, bucket := range []string{"failure", "informational"} {
				for _, entry := range sliceValue(active, bucket) {
					status, ok := entry.(map[string]any)
					if !ok {
						continue
					}
					note := stringValue(status, "explanation")
					if note == "" {
						note = stringValue(status, "code")
					}
					if note != "" {
						m.Validation.TrustNotes = append(m.Validation.TrustNotes, note)
					}
				}
			}
		}
	}
}

func findAssertion(manifest map[string]any, label string) map[string]any {
	for _, entry := range sliceValue(manifest, "assertions") {
		assertion, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if stringValue(assertion, "label") == label {
			return mapValue(assertion, "data")
		}
	}
	return nil
}

func findAssertionPrefix(manifest map[string]any, prefix string) map[string]any {
	for _, entry := range sliceValue(manifest, "assertions") {
		assertion, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if strings.HasPrefix(stringValue(assertion, "label"), prefix) {
			return mapValue(assertion, "data")
		}
	}
	return nil
}

func stringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(m, key); s != "" {
			return s
		}
	}
	return ""
}

func mapValue(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func sliceValue(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}
