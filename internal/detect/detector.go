package detect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"credence/internal/credential"
	"credence/internal/logging"
	"credence/internal/normalize"
	"credence/internal/services"
	"credence/internal/services/c2pa"
	"credence/internal/services/trustmark"
)

// Reader is the embedded-manifest stage dependency.
type Reader interface {
	Read(ctx context.Context, path, mimeType string) (credential.Raw, error)
}

// Decoder is the watermark stage dependency.
type Decoder interface {
	Decode(ctx context.Context, path, modelVariant string) (*credential.WatermarkPayload, string, error)
}

// TrustEnsurer is the bootstrap dependency. Only the attempt matters to the
// waterfall; the warning is surfaced through diagnostics.
type TrustEnsurer interface {
	Ensure(ctx context.Context) error
	Warning() string
}

// Recorder persists completed scans. Recording failures never fail a scan.
type Recorder interface {
	Record(ctx context.Context, detection *credential.Detection) error
}

// Option configures a Detector.
type Option func(*Detector)

// WithTrust attaches the trust bootstrap.
func WithTrust(trust TrustEnsurer) Option {
	return func(d *Detector) { d.trust = trust }
}

// WithRecorder attaches the scan-history recorder.
func WithRecorder(recorder Recorder) Option {
	return func(d *Detector) { d.recorder = recorder }
}

// WithModelVariant selects the watermark decoder model.
func WithModelVariant(variant string) Option {
	return func(d *Detector) {
		if variant != "" {
			d.modelVariant = variant
		}
	}
}

// WithLogger sets the detector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDownloader overrides how remote inputs are staged locally.
func WithDownloader(downloader *Downloader) Option {
	return func(d *Detector) { d.downloader = downloader }
}

// Detector sequences the two detection stages for one input at a time. It
// holds no per-request state and is safe for concurrent use.
type Detector struct {
	reader       Reader
	decoder      Decoder
	trust        TrustEnsurer
	recorder     Recorder
	downloader   *Downloader
	modelVariant string
	logger       *slog.Logger
}

// New constructs a Detector around the two stage adapters.
func New(reader Reader, decoder Decoder, opts ...Option) *Detector {
	d := &Detector{
		reader:       reader,
		decoder:      decoder,
		modelVariant: "P",
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs the waterfall for one input, which may be a local path or an
// http(s) URL. The returned error is non-nil only for input errors and
// unrecognized reader failures; every other condition resolves to a
// Detection.
func (d *Detector) Detect(ctx context.Context, source string) (*credential.Detection, error) {
	scanID := uuid.NewString()
	ctx = services.WithScanID(ctx, scanID)
	logger := logging.WithContext(ctx, d.logger)

	detection := &credential.Detection{
		Outcome: credential.OutcomeNone,
		Diagnostics: credential.Diagnostics{
			ScanID:    scanID,
			Source:    source,
			StartedAt: time.Now().UTC(),
		},
	}

	// Input gate: unusable inputs fail before any stage runs, so callers can
	// tell "we could not look" apart from "we looked and found nothing."
	path, cleanup, err := d.resolveInput(ctx, source)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	mimeType := c2pa.MIMEType(path)
	detection.Diagnostics.MIME = mimeType

	// The bootstrap must have been attempted before the embedded stage; a
	// failed attempt only yields a warning.
	if d.trust != nil {
		if err := d.trust.Ensure(ctx); err != nil {
			logger.Warn("trust bootstrap error", slog.Any("error", err))
		}
		detection.Diagnostics.TrustWarning = d.trust.Warning()
	}

	manifest, err := d.checkEmbedded(ctx, path, mimeType, logger)
	if err != nil {
		return nil, err
	}

	if manifest != nil {
		if manifest.Source == credential.SourceText {
			detection.Diagnostics.ReaderNote = "manifest fields were recovered from a text report"
		}
		// Embedded manifests are authoritative when present: the watermark
		// stage is skipped even for a manifest with zero extractable fields.
		detection.Outcome = credential.OutcomeEmbedded
		detection.Manifest = manifest
		d.finish(ctx, detection, logger)
		return detection, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, schemaTag, note, hint, err := d.checkWatermark(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	detection.Diagnostics.DecoderNote = note
	detection.Diagnostics.InstallHint = hint
	detection.Diagnostics.SchemaTag = schemaTag
	if payload != nil {
		detection.Outcome = credential.OutcomeWatermarked
		detection.Watermark = payload
	}

	d.finish(ctx, detection, logger)
	return detection, nil
}

// checkEmbedded resolves the first waterfall stage. A nil manifest with nil
// error means the stage determined absence.
func (d *Detector) checkEmbedded(ctx context.Context, path, mimeType string, logger *slog.Logger) (*credential.Manifest, error) {
	ctx = services.WithStage(ctx, "embedded")
	raw, err := d.reader.Read(ctx, path, mimeType)
	if err != nil {
		if services.IsAbsence(err) {
			logger.Debug("no embedded manifest", slog.Any("detail", err))
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Unrecognized reader failures are genuine failures, not absence.
		return nil, err
	}
	return normalize.Manifest(raw), nil
}

// checkWatermark resolves the second stage. Decoder failures degrade to
// absence: a missing secondary signal is not an error.
func (d *Detector) checkWatermark(ctx context.Context, path string, logger *slog.Logger) (*credential.WatermarkPayload, string, string, string, error) {
	ctx = services.WithStage(ctx, "watermark")
	payload, schemaTag, err := d.decoder.Decode(ctx, path, d.modelVariant)
	if err == nil {
		return payload, schemaTag, "", "", nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, services.ErrTimeout) {
		return nil, "", "", "", ctxErr
	}
	if services.IsAbsence(err) {
		return nil, "", "", "", nil
	}

	hint := ""
	if errors.Is(err, services.ErrRuntimeUnavailable) {
		hint = trustmark.InstallHint
	}
	logger.Warn("watermark stage degraded", slog.Any("error", err))
	return nil, "", err.Error(), hint, nil
}

func (d *Detector) finish(ctx context.Context, detection *credential.Detection, logger *slog.Logger) {
	detection.Diagnostics.FinishedAt = time.Now().UTC()
	logger.Info("scan complete",
		slog.String("outcome", string(detection.Outcome)),
		slog.String(logging.FieldSource, detection.Diagnostics.Source))

	if d.recorder == nil {
		return
	}
	if err := d.recorder.Record(ctx, detection); err != nil {
		logger.Warn("history record failed", slog.Any("error", err))
	}
}
