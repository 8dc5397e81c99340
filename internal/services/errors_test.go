package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrExternalTool, "embedded", "read", "engine exited", errors.New("exit status 1"))
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected error to match ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "embedded: read: engine exited") {
		t.Fatalf("expected detail in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("expected wrapped cause in message, got %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "watermark", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected nil marker to default to ErrExternalTool, got %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrInput, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsAbsence(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrNoManifest, "embedded", "read", "", nil), true},
		{Wrap(ErrNoWatermark, "watermark", "decode", "", nil), true},
		{Wrap(ErrExternalTool, "embedded", "read", "", nil), false},
		{Wrap(ErrRuntimeUnavailable, "watermark", "decode", "", nil), false},
	}
	for i, tc := range cases {
		if got := IsAbsence(tc.err); got != tc.want {
			t.Fatalf("case %d: IsAbsence(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}
