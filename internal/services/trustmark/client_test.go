package trustmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"credence/internal/credential"
	"credence/internal/services"
)

func stubDecoder(t *testing.T, mode string, captured *[]string) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "trustmark-decode.py")
	if err := os.WriteFile(script, []byte("# stub"), 0o755); err != nil {
		t.Fatalf("write stub script: %v", err)
	}

	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "TRUSTMARK_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return script
}

func TestDecodeFoundURLIdentifier(t *testing.T) {
	script := stubDecoder(t, "found-url", nil)
	cli := NewCLI(WithScript(script))
	payload, tag, err := cli.Decode(context.Background(), "/media/photo.png", "P")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if payload.Identifier != "https://cc.example.com/m/42" {
		t.Fatalf("unexpected identifier %q", payload.Identifier)
	}
	if payload.ManifestURL != payload.Identifier {
		t.Fatalf("URL identifier must populate ManifestURL, got %q", payload.ManifestURL)
	}
	if payload.Schema != credential.SchemaMax {
		t.Fatalf("expected BCH_SUPER to map to MAX, got %q", payload.Schema)
	}
	if tag != "BCH_SUPER" {
		t.Fatalf("expected raw schema tag preserved, got %q", tag)
	}
}

func TestDecodeFoundPlainIdentifier(t *testing.T) {
	script := stubDecoder(t, "found-plain", nil)
	cli := NewCLI(WithScript(script))
	payload, _, err := cli.Decode(context.Background(), "/media/photo.png", "P")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if payload.ManifestURL != "" {
		t.Fatalf("non-URL identifier must leave ManifestURL absent, got %q", payload.ManifestURL)
	}
	if payload.Schema != credential.SchemaHigh {
		t.Fatalf("expected BCH_5 to map to HIGH, got %q", payload.Schema)
	}
}

func TestDecodeNoWatermark(t *testing.T) {
	script := stubDecoder(t, "none", nil)
	cli := NewCLI(WithScript(script))
	if _, _, err := cli.Decode(context.Background(), "/media/photo.png", "P"); !errors.Is(err, services.ErrNoWatermark) {
		t.Fatalf("expected no-watermark error, got %v", err)
	}
}

func TestDecodeReplyFailure(t *testing.T) {
	script := stubDecoder(t, "error", nil)
	cli := NewCLI(WithScript(script))
	_, _, err := cli.Decode(context.Background(), "/media/photo.png", "P")
	if !errors.Is(err, services.ErrMalformedReply) {
		t.Fatalf("expected malformed-reply classification, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected reply error text, got %q", err.Error())
	}
}

func TestDecodeMissingDependency(t *testing.T) {
	script := stubDecoder(t, "missing-dep", nil)
	cli := NewCLI(WithScript(script))
	if _, _, err := cli.Decode(context.Background(), "/media/photo.png", "P"); !errors.Is(err, services.ErrRuntimeUnavailable) {
		t.Fatalf("expected runtime-unavailable classification, got %v", err)
	}
}

func TestDecodeSkipsDiagnosticNoise(t *testing.T) {
	script := stubDecoder(t, "noise", nil)
	cli := NewCLI(WithScript(script))
	payload, _, err := cli.Decode(context.Background(), "/media/photo.png", "P")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if payload.Identifier != "abc123" {
		t.Fatalf("expected reply line parsed among noise, got %q", payload.Identifier)
	}
}

func TestDecodeGarbageOutput(t *testing.T) {
	script := stubDecoder(t, "garbage", nil)
	cli := NewCLI(WithScript(script))
	if _, _, err := cli.Decode(context.Background(), "/media/photo.png", "P"); !errors.Is(err, services.ErrMalformedReply) {
		t.Fatalf("expected malformed-reply error, got %v", err)
	}
}

func TestDecodeMissingScript(t *testing.T) {
	cli := NewCLI(WithScript(filepath.Join(t.TempDir(), "absent.py")))
	if _, _, err := cli.Decode(context.Background(), "/media/photo.png", "P"); !errors.Is(err, services.ErrRuntimeUnavailable) {
		t.Fatalf("expected runtime-unavailable for missing script, got %v", err)
	}
}

func TestDecodeDeadlineMapsToTimeout(t *testing.T) {
	script := stubDecoder(t, "hang", nil)
	cli := NewCLI(WithScript(script), WithTimeout(50*time.Millisecond))
	_, _, err := cli.Decode(context.Background(), "/media/photo.png", "P")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestDecodePassesVariant(t *testing.T) {
	var args []string
	script := stubDecoder(t, "found-url", &args)
	cli := NewCLI(WithScript(script))
	if _, _, err := cli.Decode(context.Background(), "/media/photo.png", "Q"); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(args) != 3 || args[0] != script || args[1] != "/media/photo.png" || args[2] != "Q" {
		t.Fatalf("unexpected decoder argv %v", args)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("TRUSTMARK_HELPER_MODE") {
	case "found-url":
		fmt.Println(`{"success":true,"hasWatermark":true,"watermarkData":{"identifier":"https://cc.example.com/m/42","schema":"BCH_SUPER","raw":"https://cc.example.com/m/42"}}`)
		os.Exit(0)
	case "found-plain":
		// The real decoder pretty-prints its reply across multiple lines.
		fmt.Println(`{`)
		fmt.Println(`  "success": true,`)
		fmt.Println(`  "hasWatermark": true,`)
		fmt.Println(`  "watermarkData": {"identifier": "secret-77", "schema": "BCH_5", "raw": "secret-77"}`)
		fmt.Println(`}`)
		os.Exit(0)
	case "none":
		fmt.Println(`{"success":true,"hasWatermark":false}`)
		os.Exit(0)
	case "error":
		fmt.Println(`{"success":false,"hasWatermark":false,"error":"Watermark detection failed: model not found"}`)
		os.Exit(0)
	case "missing-dep":
		fmt.Println(`{"success":false,"hasWatermark":false,"error":"Missing dependency: No module named trustmark. Install with: pip install trustmark Pillow"}`)
		os.Exit(1)
	case "noise":
		fmt.Println("loading model weights...")
		fmt.Println(`{"success":true,"hasWatermark":true,"watermarkData":{"identifier":"abc123","schema":"BCH_4","raw":"abc123"}}`)
		os.Exit(0)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	case "garbage":
		fmt.Println("Traceback (most recent call last):")
		fmt.Println("  something went wrong")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
