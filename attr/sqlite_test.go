package attr

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "attrs.db"))
	defer store.Close()

	record := File(42, time.Unix(1735689600, 0))

	if err := store.Insert(ctx, "/f", record); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}

	got, found, err := store.Lookup(ctx, "/f")
	if err != nil || !found {
		t.Fatalf("expected hit (found=%v, err=%+v)", found, err)
	}

	if got.Kind != record.Kind || got.Size != record.Size || !got.ModTime.Equal(record.ModTime) {
		t.Errorf("expected %+v, got %+v", record, got)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	ctx := context.Background()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "attrs.db"))
	defer store.Close()

	if err := store.Insert(ctx, "/f", File(1, time.Unix(1, 0))); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}
	if err := store.Insert(ctx, "/f", Directory(time.Unix(2, 0))); err != nil {
		t.Fatalf("overwrite failed: %+v", err)
	}

	got, _, err := store.Lookup(ctx, "/f")
	if err != nil {
		t.Fatalf("lookup failed: %+v", err)
	}

	if !got.IsDir() {
		t.Errorf("expected overwritten record to be a directory, got %s", got.Kind)
	}
}

func TestSQLiteStoreWarmReopen(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "attrs.db")

	store := NewSQLiteStore(dbPath)

	if err := store.Insert(ctx, "/a/b.txt", File(10, time.Unix(1735689600, 0))); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %+v", err)
	}

	reopened := NewSQLiteStore(dbPath)
	defer reopened.Close()

	got, found, err := reopened.Lookup(ctx, "/a/b.txt")
	if err != nil || !found {
		t.Fatalf("expected record to survive reopen (found=%v, err=%+v)", found, err)
	}

	if e, g := int64(10), got.Size; e != g {
		t.Errorf("expected size %d, got %d", e, g)
	}
}

func TestSQLiteStoreSnapshot(t *testing.T) {
	ctx := context.Background()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "attrs.db"))
	defer store.Close()

	if err := store.Insert(ctx, "/", Directory(time.Unix(1, 0))); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}
	if err := store.Insert(ctx, "/f", File(2, time.Unix(2, 0))); err != nil {
		t.Fatalf("insert failed: %+v", err)
	}

	snapshot, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %+v", err)
	}

	if e, g := 2, len(snapshot); e != g {
		t.Fatalf("expected %d records, got %d", e, g)
	}

	if !snapshot["/"].IsDir() {
		t.Errorf("expected '/' to be a directory")
	}
	if snapshot["/f"].Size != 2 {
		t.Errorf("expected '/f' size 2, got %d", snapshot["/f"].Size)
	}
}
