package normalize

import (
	"regexp"
	"sort"
	"strings"

	"credence/internal/credential"
)

// Legacy fallback extraction over free-form engine reports. Everything in
// this file is best-effort: the patterns may under- or over-match, which is
// why the output carries SourceText and downstream consumers weight it
// lower. None of these heuristics may be used on the structured path.

const nameWindow = 200   // chars searched around a profile URL for a name label
const detailWindow = 200 // chars searched after an action line for agent/timestamp

var (
	linkedInRe = regexp.MustCompile(`(?i)https?://(?:[a-z]{2,3}\.)?linkedin\.com/in/([A-Za-z0-9\-_%.]+)`)
	nameRe     = regexp.MustCompile(`(?i)\bname\s*[:=]\s*"?([^"\n,;]+)`)
	creatorRe  = regexp.MustCompile(`(?i)\b(?:creator|author|artist|made by|created by)\s*[:=]\s*"?([^"\n,;]+)`)
	socialRe   = regexp.MustCompile(`(?i)\b(instagram|twitter|mastodon|bluesky|behance|threads)\s*[:=]\s*(@?[A-Za-z0-9_.\-/]+)`)

	actionLineRe  = regexp.MustCompile(`(?im)^[ \t>*-]*(action|created|edited|generated|opened|published)\s*[:=]\s*([^\n]+)$`)
	namespacedRe  = regexp.MustCompile(`(?i)\bc2pa\.[a-z][a-z0-9_.]*\b`)
	agentRe       = regexp.MustCompile(`(?i)\b(?:software\s*agent|software|tool|application)\s*[:=]\s*"?([^"\n,;]+)`)
	iso8601Re     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?`)
	generativeRe  = regexp.MustCompile(`(?i)\b(?:generative\s+ai|ai[\s-]generated|generated\s+(?:by|with)\s+ai|genai|trainedAlgorithmicMedia|generative)\b`)
	trainingRe    = regexp.MustCompile(`(?i)\b(?:used\s+for\s+training|ai\s+training|training\s+(?:data|permitted)|data\s+mining)\b`)
	modelLabelRe  = regexp.MustCompile(`(?i)\bmodel\s*[:=]\s*"?([^"\n,;]+)`)
	versionRe     = regexp.MustCompile(`(?i)\b(?:model\s+)?version\s*[:=]\s*"?([^"\n,;]+)`)
	signerRe      = regexp.MustCompile(`(?i)\bsigner\s*[:=]\s*"?([^"\n,;]+)`)
	signedByRe    = regexp.MustCompile(`(?i)\b(?:signed\s+by|issued\s+by)\s*[:=]\s*"?([^"\n,;]+)`)
	timestampRe   = regexp.MustCompile(`(?i)\b(?:timestamp|signing\s+time|signed\s+(?:at|on))\s*[:=]\s*"?([^"\n,;]+)`)
	certIssuerRe  = regexp.MustCompile(`(?i)\b(?:certificate|cert)\s+issuer\s*[:=]\s*"?([^"\n,;]+)`)
	issuerRe      = regexp.MustCompile(`(?i)\bissuer\s*[:=]\s*"?([^"\n,;]+)`)
	subjectRe     = regexp.MustCompile(`(?i)\b(?:certificate\s+|cert\s+)?subject\s*[:=]\s*"?([^"\n,;]+)`)
	serialRe      = regexp.MustCompile(`(?i)\bserial(?:\s+number)?\s*[:=]\s*"?([^"\n,;]+)`)
	notBeforeRe   = regexp.MustCompile(`(?i)\b(?:valid\s+from|not\s+before)\s*[:=]\s*"?([^"\n,;]+)`)
	notAfterRe    = regexp.MustCompile(`(?i)\b(?:valid\s+(?:until|to)|not\s+after|expires)\s*[:=]\s*"?([^"\n,;]+)`)
	trustNoteRe   = regexp.MustCompile(`(?im)^[ \t>*-]*((?:[^\n]*\b(?:trusted|trust\s+list|verified\s+by|validation)\b)[^\n]*)$`)
	verbActionIDs = map[string]string{
		"created":   "c2pa.created",
		"edited":    "c2pa.edited",
		"generated": "c2pa.created",
		"opened":    "c2pa.opened",
		"published": "c2pa.published",
	}
)

// fromText applies the fixed extraction order: profile identity, other
// creators and handles, actions, generative markers, signer metadata,
// certificate fields and trust notes.
func fromText(text string) *credential.Manifest {
	m := &credential.Manifest{Source: credential.SourceText}
	if strings.TrimSpace(text) == "" {
		return m
	}

	extractTextIdentity(text, m)
	extractTextCreators(text, m)
	extractTextActions(text, m)
	extractTextGenerative(text, m)
	extractTextSigner(text, m)
	extractTextCertificate(text, m)
	return m
}

// extractTextIdentity matches a LinkedIn profile URL and pairs it with a
// name label found inside a bounded window around the match. A matched
// profile marks the creator verified and sorts it first.
func extractTextIdentity(text string, m *credential.Manifest) {
	loc := linkedInRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return
	}
	slug := strings.TrimRight(text[loc[2]:loc[3]], ".")

	start := loc[0] - nameWindow
	if start < 0 {
		start = 0
	}
	end := loc[1] + nameWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]

	creator := credential.Creator{
		ProfileURL: "https://www.linkedin.com/in/" + slug,
		Verified:   true,
	}
	if match := nameRe.FindStringSubmatch(window); match != nil {
		creator.Name = strings.TrimSpace(match[1])
	}
	m.Creators = append([]credential.Creator{creator}, m.Creators...)
}

func extractTextCreators(text string, m *credential.Manifest) {
	for _, match := range creatorRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		if name == "" || knownCreator(m, name) {
			continue
		}
		m.Creators = append(m.Creators, credential.Creator{Name: name})
	}

	for _, match := range socialRe.FindAllStringSubmatch(text, -1) {
		handle := strings.ToLower(match[1]) + ":" + strings.TrimSpace(match[2])
		if len(m.Creators) > 0 {
			last := len(m.Creators) - 1
			m.Creators[last].SocialHandles = append(m.Creators[last].SocialHandles, handle)
			continue
		}
		m.Creators = append(m.Creators, credential.Creator{SocialHandles: []string{handle}})
	}
}

func knownCreator(m *credential.Manifest, name string) bool {
	for _, c := range m.Creators {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

type actionMatch struct {
	offset int
	end    int
	id     string
	value  string
}

// extractTextActions collects action label lines and namespaced action
// tokens in document order, pairing each with an agent label and an ISO-8601
// timestamp found within a bounded trailing window.
func extractTextActions(text string, m *credential.Manifest) {
	var matches []actionMatch

	for _, loc := range actionLineRe.FindAllStringSubmatchIndex(text, -1) {
		label := strings.ToLower(text[loc[2]:loc[3]])
		value := strings.TrimSpace(text[loc[4]:loc[5]])
		match := actionMatch{offset: loc[0], end: loc[1]}
		if label == "action" {
			match.id = value
		} else {
			match.id = verbActionIDs[label]
			match.value = value
		}
		if match.id != "" {
			matches = append(matches, match)
		}
	}

	for _, loc := range namespacedRe.FindAllStringIndex(text, -1) {
		token := strings.ToLower(text[loc[0]:loc[1]])
		if strings.HasPrefix(token, "c2pa.actions") {
			continue // the assertion label, not an action id
		}
		if insideMatch(matches, loc[0]) {
			continue
		}
		matches = append(matches, actionMatch{offset: loc[0], end: loc[1], id: token})
	}

	// Source order, never sorted by anything else.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	for _, match := range matches {
		action := credential.Action{Action: match.id}

		windowEnd := match.end + detailWindow
		if windowEnd > len(text) {
			windowEnd = len(text)
		}
		window := text[match.end:windowEnd]

		if agent := agentRe.FindStringSubmatch(window); agent != nil {
			action.SoftwareAgent = strings.TrimSpace(agent[1])
		}
		if when := iso8601Re.FindString(match.value); when != "" {
			action.When = when
		} else if when := iso8601Re.FindString(window); when != "" {
			action.When = when
		}
		m.Actions = append(m.Actions, action)
	}
}

func insideMatch(matches []actionMatch, offset int) bool {
	for _, match := range matches {
		if offset >= match.offset && offset < match.end {
			return true
		}
	}
	return false
}

func extractTextGenerative(text string, m *credential.Manifest) {
	genLoc := generativeRe.FindStringIndex(text)
	trainLoc := trainingRe.FindStringIndex(text)
	if genLoc == nil && trainLoc == nil {
		return
	}

	info := credential.GenerativeInfo{
		Generative:      genLoc != nil,
		UsedForTraining: trainLoc != nil,
	}

	anchor := genLoc
	if anchor == nil {
		anchor = trainLoc
	}
	start := anchor[0] - detailWindow
	if start < 0 {
		start = 0
	}
	end := anchor[1] + detailWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[start:end]

	if match := modelLabelRe.FindStringSubmatch(window); match != nil {
		info.Model = strings.TrimSpace(match[1])
	}
	if match := versionRe.FindStringSubmatch(window); match != nil {
		info.Version = strings.TrimSpace(match[1])
	}
	m.Generative = &info
}

func extractTextSigner(text string, m *credential.Manifest) {
	if match := signerRe.FindStringSubmatch(text); match != nil {
		m.Meta.Signer = strings.TrimSpace(match[1])
	} else if match := signedByRe.FindStringSubmatch(text); match != nil {
		m.Meta.SignedBy = strings.TrimSpace(match[1])
	}

	if match := timestampRe.FindStringSubmatch(text); match != nil {
		m.Meta.Timestamp = strings.TrimSpace(match[1])
	} else if m.Meta.Signer != "" || m.Meta.SignedBy != "" {
		// ISO-8601 fallback only once a signer was identified; otherwise the
		// scan would steal action timestamps.
		m.Meta.Timestamp = iso8601Re.FindString(text)
	}
}

func extractTextCertificate(text string, m *credential.Manifest) {
	cert := credential.Certificate{}
	if match := certIssuerRe.FindStringSubmatch(text); match != nil {
		cert.Issuer = strings.TrimSpace(match[1])
	} else if match := issuerRe.FindStringSubmatch(text); match != nil {
		cert.Issuer = strings.TrimSpace(match[1])
	}
	if match := subjectRe.FindStringSubmatch(text); match != nil {
		cert.Subject = strings.TrimSpace(match[1])
	}
	if match := serialRe.FindStringSubmatch(text); match != nil {
		cert.Serial = strings.TrimSpace(match[1])
	}
	if match := notBeforeRe.FindStringSubmatch(text); match != nil {
		cert.NotBefore = strings.TrimSpace(match[1])
	}
	if match := notAfterRe.FindStringSubmatch(text); match != nil {
		cert.NotAfter = strings.TrimSpace(match[1])
	}
	if cert != (credential.Certificate{}) {
		m.Validation.Certificate = &cert
	}

	seen := map[string]bool{}
	for _, match := range trustNoteRe.FindAllStringSubmatch(text, -1) {
		note := strings.TrimSpace(match[1])
		if note == "" || seen[note] {
			continue
		}
		seen[note] = true
		m.Validation.TrustNotes = append(m.Validation.TrustNotes, note)
	}
}
