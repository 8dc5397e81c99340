package main

import (
	"context"
	"testing"
	"time"

	"credence/internal/credential"
	"credence/internal/history"
)

func recordScan(t *testing.T, env *cliTestEnv, scanID string) {
	t.Helper()
	store, err := history.Open(context.Background(), env.cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	err = store.Record(context.Background(), &credential.Detection{
		Outcome: credential.OutcomeNone,
		Diagnostics: credential.Diagnostics{
			ScanID:     scanID,
			Source:     "/photos/" + scanID + ".jpg",
			StartedAt:  now,
			FinishedAt: now,
		},
	})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No recorded scans.")
}

func TestHistoryListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	recordScan(t, env, "scan-cli-1")

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "scan-cli-1")

	out, _, err = runCLI(t, []string{"history", "show", "scan-cli-1"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "No credentials found")

	_, _, err = runCLI(t, []string{"history", "show", "missing-id"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown scan id")
	}
}

func TestHistoryClear(t *testing.T) {
	env := setupCLITestEnv(t)
	recordScan(t, env, "scan-cli-2")

	out, _, err := runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 1 recorded scans")
}
