package database_test

import (
	"context"
	"testing"
	"time"

	"aplib-go/internal/audit"
	"aplib-go/internal/testutil"
)

func sampleReporter() *audit.Reporter {
	r := audit.NewReporter()

	album := audit.NewReport()
	album.Parsed("uuid")
	album.Parsed("InfoDictionary")
	album.Skip("versionUuids", audit.InvalidData)
	album.Ignore("plistWriteTimestamp")
	r.Parsed("/lib/Database/Albums/a.apalbum", album)

	folder := audit.NewReport()
	folder.Parsed("uuid")
	r.Parsed("/lib/Database/Folders/f.apfolder", folder)

	r.Skip("/lib/Database/Albums/broken.apalbum", audit.ParseFailed)
	r.Ignore("/lib/Database/Albums/._a.apalbum")
	return r
}

func TestAuditStore_SaveRun(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestAuditStore(t)
	started := time.Date(2010, 3, 14, 15, 0, 0, 0, time.UTC)

	id, err := store.SaveRun(ctx, "/lib", "3.6", started, sampleReporter())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if id != "id-1" {
		t.Errorf("SaveRun() id = %q, want id-1", id)
	}

	runs, err := store.ListRuns(ctx, "/lib")
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(ListRuns()) = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.LibraryVersion != "3.6" {
		t.Errorf("LibraryVersion = %q, want 3.6", run.LibraryVersion)
	}
	if run.ParsedFiles != 2 || run.SkippedFiles != 1 || run.IgnoredFiles != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", run.ParsedFiles, run.SkippedFiles, run.IgnoredFiles)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, started)
	}
	if !run.FinishedAt.Equal(testutil.FixedClock().Now()) {
		t.Errorf("FinishedAt = %v, want the store clock", run.FinishedAt)
	}
}

func TestAuditStore_RunFiles(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestAuditStore(t)

	id, err := store.SaveRun(ctx, "/lib", "", time.Now(), sampleReporter())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	files, err := store.RunFiles(ctx, id)
	if err != nil {
		t.Fatalf("RunFiles() error = %v", err)
	}
	want := map[string]struct{ outcome, reason string }{
		"/lib/Database/Albums/a.apalbum":      {"parsed", ""},
		"/lib/Database/Folders/f.apfolder":    {"parsed", ""},
		"/lib/Database/Albums/broken.apalbum": {"skipped", "ParseFailed"},
		"/lib/Database/Albums/._a.apalbum":    {"ignored", ""},
	}
	if len(files) != len(want) {
		t.Fatalf("len(RunFiles()) = %d, want %d", len(files), len(want))
	}
	for _, f := range files {
		w, ok := want[f.Path]
		if !ok {
			t.Errorf("unexpected file %s", f.Path)
			continue
		}
		if f.Outcome != w.outcome || f.Reason != w.reason {
			t.Errorf("%s = %s/%s, want %s/%s", f.Path, f.Outcome, f.Reason, w.outcome, w.reason)
		}
	}
}

func TestAuditStore_FileKeysAndCounts(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestAuditStore(t)

	id, err := store.SaveRun(ctx, "/lib", "3.6", time.Now(), sampleReporter())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	keys, err := store.FileKeys(ctx, id, "/lib/Database/Albums/a.apalbum")
	if err != nil {
		t.Fatalf("FileKeys() error = %v", err)
	}
	if len(keys) != 4 {
		t.Fatalf("len(FileKeys()) = %d, want 4", len(keys))
	}
	// Sorted by key.
	if keys[0].Key != "InfoDictionary" || keys[0].Outcome != "parsed" {
		t.Errorf("keys[0] = %+v, want InfoDictionary/parsed", keys[0])
	}
	if keys[3].Key != "versionUuids" || keys[3].Reason != "InvalidData" {
		t.Errorf("keys[3] = %+v, want versionUuids skipped InvalidData", keys[3])
	}

	counts, err := store.KeyCounts(ctx, id)
	if err != nil {
		t.Fatalf("KeyCounts() error = %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("len(KeyCounts()) = %d, want 2", len(counts))
	}
	if counts[0].Key != "plistWriteTimestamp" || counts[0].Count != 1 {
		t.Errorf("counts[0] = %+v, want plistWriteTimestamp x1", counts[0])
	}
}

func TestAuditStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestAuditStore(t)
	base := time.Date(2010, 3, 14, 0, 0, 0, 0, time.UTC)

	for i, lib := range []string{"/a", "/b", "/a"} {
		if _, err := store.SaveRun(ctx, lib, "3.6", base.Add(time.Duration(i)*time.Hour), audit.NewReporter()); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", lib, err)
		}
	}

	t.Run("filters by library", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "/a")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("len(ListRuns(/a)) = %d, want 2", len(runs))
		}
		if runs[0].ID != "id-3" {
			t.Errorf("newest run = %s, want id-3", runs[0].ID)
		}
	})

	t.Run("all runs", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 3 {
			t.Errorf("len(ListRuns()) = %d, want 3", len(runs))
		}
	})

	t.Run("unknown library", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "/none")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("len(ListRuns(/none)) = %d, want 0", len(runs))
		}
	})
}

func TestAuditStore_CheckMigrations(t *testing.T) {
	store := testutil.NewTestAuditStore(t)
	if err := store.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
}
