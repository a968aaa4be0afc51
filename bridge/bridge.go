// Package bridge translates filesystem calls (attribute lookup, directory
// listing, byte-range read) into object-store list/get operations. The
// object store has no native directory concept, so the bridge synthesizes a
// directory tree on demand from prefix+delimiter listings and keeps the
// discovered attributes in a path-indexed cache.
package bridge

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/zenkj/ossfs/attr"
	"github.com/zenkj/ossfs/filter"
	"github.com/zenkj/ossfs/store"
)

// ErrIsDirectory is returned when a file-only operation targets a path
// cached as a directory.
var ErrIsDirectory = errors.New("is a directory")

// Operations is the call surface exposed to the filesystem adapter.
type Operations interface {
	// Getattr returns the cached attribute record for an absolute path, or
	// os.ErrNotExist when the path was never materialized.
	Getattr(ctx context.Context, path string) (attr.Record, error)

	// Readdir expands a directory into its immediate child names, caching
	// an attribute record per child as a side effect. The result always
	// starts with "." and "..".
	Readdir(ctx context.Context, path string) ([]string, error)

	// Read returns up to length bytes of the file at path starting at
	// offset, clamped to the file's cached extent.
	Read(ctx context.Context, path string, length int, offset int64) ([]byte, error)
}

// Options configures a Bridge.
type Options struct {
	// Store provides prefix listings and byte-range fetches against the
	// bucket.
	Store store.Store

	// Attrs is the attribute cache. The root record is (re)seeded at
	// construction.
	Attrs attr.Store

	// Filter optionally restricts which discovered entries are surfaced.
	// Entries rejected by the filter are neither listed nor cached.
	Filter *filter.Filter

	// StatProbe makes Getattr probe the store on a cache miss instead of
	// answering from the cache alone. Off by default: with the probe
	// disabled a path is only visible after an ancestor Readdir has
	// materialized it.
	StatProbe bool
}

type Bridge struct {
	objects   store.Store
	attrs     attr.Store
	filter    *filter.Filter
	statProbe bool
}

// New creates a Bridge and seeds the root directory record, stamped with
// the current time.
func New(opts Options) (*Bridge, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Attrs == nil {
		return nil, errors.New("attribute store is required")
	}

	b := &Bridge{
		objects:   opts.Store,
		attrs:     opts.Attrs,
		filter:    opts.Filter,
		statProbe: opts.StatProbe,
	}

	if err := b.attrs.Insert(context.Background(), "/", attr.Directory(time.Now())); err != nil {
		return nil, errors.Wrap(err, "could not seed root record")
	}

	return b, nil
}

// Getattr implements Operations.
func (b *Bridge) Getattr(ctx context.Context, path string) (attr.Record, error) {
	record, found, err := b.attrs.Lookup(ctx, path)
	if err != nil {
		return attr.Record{}, errors.WithStack(err)
	}

	if found {
		return record, nil
	}

	// The root is always present and always a directory: an expiring cache
	// may have dropped the seeded record, so re-seed it instead of missing.
	if path == "/" {
		record = attr.Directory(time.Now())
		if err := b.attrs.Insert(ctx, path, record); err != nil {
			return attr.Record{}, errors.WithStack(err)
		}
		return record, nil
	}

	if !b.statProbe {
		return attr.Record{}, os.ErrNotExist
	}

	return b.probe(ctx, path)
}

// probe resolves a cache miss with a single-object stat, falling back to a
// one-key prefix listing for simulated directories.
func (b *Bridge) probe(ctx context.Context, path string) (attr.Record, error) {
	key := storeKey(path)

	obj, err := b.objects.StatObject(ctx, key)
	if err == nil {
		record := attr.File(obj.Size, obj.LastModified)
		if err := b.attrs.Insert(ctx, path, record); err != nil {
			return attr.Record{}, errors.WithStack(err)
		}
		return record, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return attr.Record{}, errors.WithStack(err)
	}

	exists, err := b.objects.HasPrefix(ctx, key+store.Delimiter)
	if err != nil {
		return attr.Record{}, errors.WithStack(err)
	}

	if !exists {
		return attr.Record{}, os.ErrNotExist
	}

	record := attr.Directory(time.Now())
	if err := b.attrs.Insert(ctx, path, record); err != nil {
		return attr.Record{}, errors.WithStack(err)
	}

	return record, nil
}

var _ Operations = &Bridge{}
