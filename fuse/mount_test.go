package fuse

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/zenkj/ossfs/attr"
	"github.com/zenkj/ossfs/bridge"
)

// fuseAvailable checks whether /dev/fuse is accessible. Tests that need a
// real mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	_, err := os.Stat("/dev/fuse")
	if err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

var testModTime = time.Unix(1735689600, 0)

// fakeBridge serves a static tree: attribute records keyed by path,
// directory listings keyed by path and object contents keyed by path.
type fakeBridge struct {
	records  map[string]attr.Record
	children map[string][]string
	contents map[string][]byte
}

func (f *fakeBridge) Getattr(ctx context.Context, path string) (attr.Record, error) {
	record, ok := f.records[path]
	if !ok {
		return attr.Record{}, os.ErrNotExist
	}

	return record, nil
}

func (f *fakeBridge) Readdir(ctx context.Context, path string) ([]string, error) {
	return append([]string{".", ".."}, f.children[path]...), nil
}

func (f *fakeBridge) Read(ctx context.Context, path string, length int, offset int64) ([]byte, error) {
	record, ok := f.records[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	if record.IsDir() {
		return nil, bridge.ErrIsDirectory
	}

	data := f.contents[path]
	if offset >= int64(len(data)) {
		return []byte{}, nil
	}

	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}

	return data[offset:end], nil
}

var _ bridge.Operations = &fakeBridge{}

func testMount(t *testing.T) string {
	t.Helper()
	fuseAvailable(t)

	fake := &fakeBridge{
		records: map[string]attr.Record{
			"/":           attr.Directory(testModTime),
			"/docs":       attr.Directory(testModTime),
			"/docs/a.txt": attr.File(5, testModTime),
			"/empty.bin":  attr.File(0, testModTime),
		},
		children: map[string][]string{
			"/":     {"docs", "empty.bin"},
			"/docs": {"a.txt"},
		},
		contents: map[string][]byte{
			"/docs/a.txt": []byte("hello"),
		},
	}

	mountpoint := filepath.Join(t.TempDir(), "mount")

	server, err := Mount(Options{
		Mountpoint: mountpoint,
		Bridge:     fake,
		Identity:   CurrentIdentity(),
	})
	if err != nil {
		t.Fatalf("could not mount: %+v", err)
	}

	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("could not unmount: %+v", err)
		}
	})

	return mountpoint
}

func TestMountReaddir(t *testing.T) {
	mountpoint := testMount(t)

	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("could not read mounted root: %+v", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	if e, g := "docs,empty.bin", strings.Join(names, ","); e != g {
		t.Errorf("expected entries [%s], got [%s]", e, g)
	}
}

func TestMountStat(t *testing.T) {
	mountpoint := testMount(t)

	info, err := os.Stat(filepath.Join(mountpoint, "docs", "a.txt"))
	if err != nil {
		t.Fatalf("could not stat file: %+v", err)
	}

	if info.IsDir() {
		t.Errorf("expected a regular file")
	}
	if e, g := int64(5), info.Size(); e != g {
		t.Errorf("expected size %d, got %d", e, g)
	}
	if !info.ModTime().Equal(testModTime) {
		t.Errorf("expected modtime %v, got %v", testModTime, info.ModTime())
	}

	info, err = os.Stat(filepath.Join(mountpoint, "docs"))
	if err != nil {
		t.Fatalf("could not stat directory: %+v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected a directory")
	}
}

func TestMountStatMissing(t *testing.T) {
	mountpoint := testMount(t)

	if _, err := os.Stat(filepath.Join(mountpoint, "never-listed")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %+v", err)
	}
}

func TestMountRead(t *testing.T) {
	mountpoint := testMount(t)

	data, err := os.ReadFile(filepath.Join(mountpoint, "docs", "a.txt"))
	if err != nil {
		t.Fatalf("could not read file: %+v", err)
	}

	if e, g := "hello", string(data); e != g {
		t.Errorf("expected '%s', got '%s'", e, g)
	}

	data, err = os.ReadFile(filepath.Join(mountpoint, "empty.bin"))
	if err != nil {
		t.Fatalf("could not read empty file: %+v", err)
	}

	if len(data) != 0 {
		t.Errorf("expected empty content, got %d bytes", len(data))
	}
}

func TestMountIsReadOnly(t *testing.T) {
	mountpoint := testMount(t)

	if err := os.WriteFile(filepath.Join(mountpoint, "new.txt"), []byte("x"), 0o644); err == nil {
		t.Errorf("expected file creation to fail")
	}

	if err := os.Mkdir(filepath.Join(mountpoint, "newdir"), 0o755); err == nil {
		t.Errorf("expected mkdir to fail")
	}

	if err := os.Remove(filepath.Join(mountpoint, "docs", "a.txt")); err == nil {
		t.Errorf("expected unlink to fail")
	}

	if _, err := os.OpenFile(filepath.Join(mountpoint, "docs", "a.txt"), os.O_WRONLY, 0); err == nil {
		t.Errorf("expected open-for-write to fail")
	}
}
