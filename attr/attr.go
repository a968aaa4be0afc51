package attr

import (
	"context"
	"time"
)

// DirectorySize is the synthetic size reported for every directory,
// matching what local filesystems commonly report for a block.
const DirectorySize int64 = 4096

type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Record is the synthesized filesystem metadata for a path. Records are
// immutable once inserted; a later expansion of the same prefix may
// overwrite a record with an identical key.
type Record struct {
	Kind    Kind
	Size    int64
	ModTime time.Time
}

// IsDir reports whether the record describes a synthesized directory.
func (r Record) IsDir() bool {
	return r.Kind == KindDirectory
}

// Directory returns a directory record discovered at the given time.
func Directory(modTime time.Time) Record {
	return Record{
		Kind:    KindDirectory,
		Size:    DirectorySize,
		ModTime: modTime,
	}
}

// File returns a file record carrying the store object's metadata.
func File(size int64, modTime time.Time) Record {
	return Record{
		Kind:    KindFile,
		Size:    size,
		ModTime: modTime,
	}
}

// Store is the attribute cache: a mapping from absolute path to the most
// recent record materialized for it. Presence in the store is a cache, not
// a source of truth; records are inserted as a side effect of directory
// expansion and never removed by the core flow.
type Store interface {
	Lookup(ctx context.Context, path string) (Record, bool, error)
	Insert(ctx context.Context, path string, record Record) error
	Snapshot(ctx context.Context) (map[string]Record, error)
}
