package storage

import (
	"path/filepath"
	"testing"
	"time"

	"orderscraper/internal/models"
)

func TestArchiveRecordAndList(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer archive.Close()

	older := models.RunRecord{
		StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Account:    "abc123",
		Locale:     "de_DE",
		State:      models.RunDone,
		OrderCount: 42,
		PageCount:  5,
		OutputPath: "orders.json",
	}
	newer := models.RunRecord{
		StartedAt:    time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
		Account:      "abc123",
		Locale:       "de_DE",
		State:        models.RunDone,
		OrderCount:   20,
		PageCount:    2,
		SkippedItems: 1,
		Partial:      true,
		OutputPath:   "orders.json",
		Flags:        models.JSONStringSlice{models.FlagMissingRecipient},
	}

	if _, err := archive.RecordRun(older); err != nil {
		t.Fatalf("RecordRun(older): %v", err)
	}
	if _, err := archive.RecordRun(newer); err != nil {
		t.Fatalf("RecordRun(newer): %v", err)
	}

	runs, err := archive.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].Partial || runs[0].OrderCount != 20 {
		t.Errorf("newest run should come first, got %+v", runs[0])
	}
	if !runs[0].StartedAt.Equal(newer.StartedAt) {
		t.Errorf("started_at round trip failed: %v", runs[0].StartedAt)
	}
	if len(runs[0].Flags) != 1 || runs[0].Flags[0] != models.FlagMissingRecipient {
		t.Errorf("flags round trip failed: %v", runs[0].Flags)
	}
	if runs[1].OrderCount != 42 || runs[1].Partial {
		t.Errorf("older run mismatch: %+v", runs[1])
	}
}
