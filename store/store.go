package store

import (
	"context"
	"io"
	"time"
)

// Delimiter is the hierarchy delimiter used for every listing request.
const Delimiter = "/"

// Object is the metadata of a single key in the bucket.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Listing is the result of one prefix+delimiter listing call: the common
// prefixes (simulated subdirectories) and the objects directly under the
// requested prefix. Deeper nesting is collapsed into the common prefixes by
// the delimiter semantics, so one call per directory level suffices.
type Listing struct {
	// Prefixes are the common prefixes, each including the trailing
	// delimiter (e.g. "photos/vacation/").
	Prefixes []string

	// Objects are the objects directly under the prefix.
	Objects []Object
}

// Store is the object-store client consumed by the bridge. Keys are
// store-relative (no leading delimiter).
type Store interface {
	// List issues one prefix-delimited listing request and returns the
	// immediate children of the prefix.
	List(ctx context.Context, prefix string) (*Listing, error)

	// GetRange fetches the inclusive byte range [begin, end] of an object.
	GetRange(ctx context.Context, key string, begin int64, end int64) (io.ReadCloser, error)

	// StatObject probes a single key and returns its metadata, or
	// os.ErrNotExist when the key is absent.
	StatObject(ctx context.Context, key string) (*Object, error)

	// HasPrefix reports whether at least one key exists under the given
	// prefix, establishing the existence of a simulated directory.
	HasPrefix(ctx context.Context, prefix string) (bool, error)
}
