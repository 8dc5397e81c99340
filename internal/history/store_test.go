package history_test

import (
	"context"
	"testing"
	"time"

	"credence/internal/credential"
	"credence/internal/testsupport"
)

func sampleDetection(scanID string, outcome credential.Outcome) *credential.Detection {
	now := time.Now().UTC()
	detection := &credential.Detection{
		Outcome: outcome,
		Diagnostics: credential.Diagnostics{
			ScanID:     scanID,
			Source:     "/photos/" + scanID + ".jpg",
			MIME:       "image/jpeg",
			StartedAt:  now.Add(-2 * time.Second),
			FinishedAt: now,
		},
	}
	if outcome == credential.OutcomeWatermarked {
		payload := credential.NewWatermarkPayload("https://cai.example/wm/7", "0101", credential.SchemaHigh)
		detection.Watermark = &payload
	}
	return detection
}

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	if err := store.Record(ctx, sampleDetection("scan-1", credential.OutcomeNone)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entry, err := store.GetByScanID(ctx, "scan-1")
	if err != nil {
		t.Fatalf("GetByScanID failed: %v", err)
	}
	if entry == nil || entry.Source != "/photos/scan-1.jpg" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.Outcome != credential.OutcomeNone {
		t.Fatalf("outcome = %q", entry.Outcome)
	}
}

func TestRecordPersistsWatermarkColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	if err := store.Record(ctx, sampleDetection("scan-wm", credential.OutcomeWatermarked)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entry, err := store.GetByScanID(ctx, "scan-wm")
	if err != nil {
		t.Fatalf("GetByScanID failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry")
	}
	if entry.Identifier != "https://cai.example/wm/7" || entry.Schema != "HIGH" {
		t.Fatalf("identifier/schema = %q/%q", entry.Identifier, entry.Schema)
	}

	detection, err := entry.Detection()
	if err != nil {
		t.Fatalf("Detection failed: %v", err)
	}
	if detection.Watermark == nil || detection.Watermark.ManifestURL != "https://cai.example/wm/7" {
		t.Fatalf("rehydrated detection = %#v", detection)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	for _, id := range []string{"scan-a", "scan-b", "scan-c"} {
		if err := store.Record(ctx, sampleDetection(id, credential.OutcomeNone)); err != nil {
			t.Fatalf("Record %s failed: %v", id, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ScanID != "scan-c" || entries[1].ScanID != "scan-b" {
		t.Fatalf("unexpected order: %s, %s", entries[0].ScanID, entries[1].ScanID)
	}
}

func TestStatsGroupsByOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	if err := store.Record(ctx, sampleDetection("scan-1", credential.OutcomeNone)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, sampleDetection("scan-2", credential.OutcomeWatermarked)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[credential.OutcomeNone] != 1 || stats[credential.OutcomeWatermarked] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	if err := store.Record(ctx, sampleDetection("scan-1", credential.OutcomeNone)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(entries))
	}
}

func TestGetByScanIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	entry, err := store.GetByScanID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByScanID failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}
