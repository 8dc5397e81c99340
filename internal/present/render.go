package present

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"credence/internal/credential"
	"credence/internal/deps"
	"credence/internal/history"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	labelWidth = 14
	indent     = "  "
)

var titler = cases.Title(language.Und)

// Renderer writes terminal reports for detection results.
type Renderer struct {
	writer   io.Writer
	colorize bool
}

// NewRenderer builds a renderer targeting the provided writer, colorizing
// only when the writer is a terminal.
func NewRenderer(writer io.Writer) *Renderer {
	return &Renderer{writer: writer, colorize: shouldColorize(writer)}
}

// Plain disables color regardless of the destination.
func (r *Renderer) Plain() *Renderer {
	r.colorize = false
	return r
}

// Detection writes the full human-readable report for one scan.
func (r *Renderer) Detection(detection *credential.Detection) {
	if detection == nil {
		return
	}

	r.writeHeader("Content Credentials")
	r.writeStatus("Outcome", outcomeKind(detection.Outcome), outcomeLabel(detection.Outcome))
	r.writeField("Source", detection.Diagnostics.Source)
	r.writeField("Type", detection.Diagnostics.MIME)
	r.writeLine("")

	if detection.Manifest != nil {
		r.manifest(detection.Manifest)
	}
	if detection.Watermark != nil {
		r.watermark(detection.Watermark)
	}
	r.diagnostics(&detection.Diagnostics)
}

// History writes a table of recorded scans, newest first.
func (r *Renderer) History(entries []*history.Entry) {
	if len(entries) == 0 {
		r.writeLine("No recorded scans.")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ScanID,
			outcomeLabel(entry.Outcome),
			entry.Source,
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	r.writeLine(renderTable(
		[]string{"Scan", "Outcome", "Source", "Recorded"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

// Dependencies writes availability lines for the external tools, one status
// per requirement.
func (r *Renderer) Dependencies(statuses []deps.Status) {
	for _, status := range statuses {
		kind := statusOK
		message := status.Description
		if !status.Available {
			kind = statusWarn
			message = status.Detail
		}
		r.writeStatus(status.Name, kind, message)
		if !status.Available && status.Description != "" {
			r.writeLine(indent + indent + status.Description)
		}
	}
}

func (r *Renderer) manifest(manifest *credential.Manifest) {
	r.writeHeader("Embedded Manifest")
	if manifest.Empty() {
		r.writeLine(indent + "The manifest is present but carries no extractable detail.")
		r.writeLine("")
		return
	}

	if len(manifest.Creators) > 0 {
		rows := make([][]string, 0, len(manifest.Creators))
		for _, creator := range manifest.Creators {
			verified := ""
			if creator.Verified {
				verified = "yes"
			}
			rows = append(rows, []string{
				creator.Name,
				creator.ProfileURL,
				strings.Join(creator.SocialHandles, ", "),
				verified,
			})
		}
		r.writeLine(renderTable(
			[]string{"Creator", "Profile", "Social", "Verified"},
			rows,
			nil,
		))
	}

	if len(manifest.Actions) > 0 {
		rows := make([][]string, 0, len(manifest.Actions))
		for _, action := range manifest.Actions {
			rows = append(rows, []string{action.Action, action.SoftwareAgent, action.When})
		}
		r.writeLine(renderTable(
			[]string{"Action", "Software", "When"},
			rows,
			nil,
		))
	}

	if gen := manifest.Generative; gen != nil {
		kind := statusInfo
		if gen.Generative {
			kind = statusWarn
		}
		label := "no generative claim"
		if gen.Generative {
			label = "AI-generated content"
		}
		r.writeStatus("Generative", kind, label)
		if gen.Model != "" {
			model := gen.Model
			if gen.Version != "" {
				model += " " + gen.Version
			}
			r.writeField("Model", model)
		}
		if gen.UsedForTraining {
			r.writeField("Training", "content may be used for model training")
		}
	}

	if manifest.Meta.Signer != "" {
		r.writeField("Signer", manifest.Meta.Signer)
	}
	if manifest.Meta.SignedBy != "" {
		r.writeField("Signed by", manifest.Meta.SignedBy)
	}
	if manifest.Meta.Timestamp != "" {
		r.writeField("Signed at", manifest.Meta.Timestamp)
	}

	if cert := manifest.Validation.Certificate; cert != nil {
		if cert.Issuer != "" {
			r.writeField("Cert issuer", cert.Issuer)
		}
		if cert.Subject != "" {
			r.writeField("Cert subject", cert.Subject)
		}
		if cert.NotAfter != "" {
			r.writeField("Cert expires", cert.NotAfter)
		}
	}

	for _, note := range manifest.Validation.TrustNotes {
		r.writeStatus("Validation", statusWarn, note)
	}

	if manifest.Source == credential.SourceText {
		r.writeLine(indent + "Fields were recovered from a text report and may be incomplete.")
	}
	r.writeLine("")
}

func (r *Renderer) watermark(payload *credential.WatermarkPayload) {
	r.writeHeader("Pixel Watermark")
	r.writeField("Identifier", payload.Identifier)
	r.writeField("Schema", string(payload.Schema))
	if payload.ManifestURL != "" {
		r.writeField("Manifest", payload.ManifestURL)
	}
	r.writeLine("")
}

func (r *Renderer) diagnostics(diag *credential.Diagnostics) {
	hasNotes := diag.TrustWarning != "" || diag.DecoderNote != "" || diag.ReaderNote != ""
	if !hasNotes {
		return
	}

	r.writeHeader("Notes")
	if diag.TrustWarning != "" {
		r.writeStatus("Trust", statusWarn, diag.TrustWarning)
	}
	if diag.ReaderNote != "" {
		r.writeStatus("Reader", statusInfo, diag.ReaderNote)
	}
	if diag.DecoderNote != "" {
		r.writeStatus("Decoder", statusWarn, diag.DecoderNote)
		if diag.InstallHint != "" {
			r.writeLine(indent + diag.InstallHint)
		}
	}
	r.writeLine("")
}

func (r *Renderer) writeHeader(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if r.colorize {
		line = ansiBlue + line + ansiReset
	}
	r.writeLine(line)
}

func (r *Renderer) writeStatus(label string, kind statusKind, message string) {
	statusText := fmt.Sprintf("[%s]", statusLabel(kind))
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusLabel(kind), message)
	}
	base := fmt.Sprintf("%s%-*s %s", indent, labelWidth, label+":", statusText)
	if r.colorize {
		if color := statusColor(kind); color != "" {
			base = color + base + ansiReset
		}
	}
	r.writeLine(base)
}

func (r *Renderer) writeField(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	r.writeLine(fmt.Sprintf("%s%-*s %s", indent, labelWidth, label+":", value))
}

func (r *Renderer) writeLine(line string) {
	fmt.Fprintln(r.writer, line)
}

func statusLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

func statusColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func outcomeKind(outcome credential.Outcome) statusKind {
	switch outcome {
	case credential.OutcomeEmbedded, credential.OutcomeWatermarked:
		return statusOK
	default:
		return statusInfo
	}
}

func outcomeLabel(outcome credential.Outcome) string {
	switch outcome {
	case credential.OutcomeEmbedded:
		return "Embedded manifest found"
	case credential.OutcomeWatermarked:
		return "Pixel watermark found"
	case credential.OutcomeNone:
		return "No credentials found"
	default:
		return titler.String(string(outcome))
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
