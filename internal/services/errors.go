package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks unusable inputs (missing file, bad path, bad URL).
	// Input errors surface to the caller before any detection stage runs.
	ErrInput = errors.New("input error")
	// ErrExternalTool marks unrecognized failures from an external engine.
	ErrExternalTool = errors.New("external tool error")
	// ErrNoManifest marks a successful determination that no embedded
	// manifest exists. Distinct from a read failure.
	ErrNoManifest = errors.New("no manifest found")
	// ErrNoWatermark marks a successful determination that no watermark
	// exists in the pixel data.
	ErrNoWatermark = errors.New("no watermark found")
	// ErrRuntimeUnavailable marks a missing watermark decoding runtime or
	// decoder script.
	ErrRuntimeUnavailable = errors.New("decoder runtime unavailable")
	// ErrMalformedReply marks decoder output that could not be parsed as the
	// expected single-line JSON reply.
	ErrMalformedReply = errors.New("malformed decoder reply")
	// ErrTrustLoad marks a trust bootstrap failure. Never fatal to reads.
	ErrTrustLoad = errors.New("trust configuration error")
	// ErrTimeout marks an outbound fetch or download that exceeded its
	// bounded deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsAbsence reports whether the error is a recognized "looked and found
// nothing" determination rather than a failure.
func IsAbsence(err error) bool {
	return errors.Is(err, ErrNoManifest) || errors.Is(err, ErrNoWatermark)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
