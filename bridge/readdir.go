package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/zenkj/ossfs/attr"
	"github.com/zenkj/ossfs/store"
)

// Readdir implements Operations. One prefix+delimiter listing call yields
// exactly the immediate children of the directory, regardless of how deep
// the bucket's key space nests below it.
func (b *Bridge) Readdir(ctx context.Context, path string) ([]string, error) {
	prefix := listPrefix(path)

	listing, err := b.objects.List(ctx, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list prefix '%s'", prefix)
	}

	names := []string{".", ".."}
	seen := map[string]struct{}{
		".":  {},
		"..": {},
	}

	now := time.Now()

	for _, commonPrefix := range listing.Prefixes {
		fullPath := "/" + strings.TrimSuffix(commonPrefix, store.Delimiter)

		name := leafName(fullPath, path)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}

		if b.filter != nil {
			matched, err := b.filter.Match(fullPath, name, true, 0)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			if !matched {
				continue
			}
		}

		seen[name] = struct{}{}

		if err := b.attrs.Insert(ctx, fullPath, attr.Directory(now)); err != nil {
			return nil, errors.WithStack(err)
		}

		names = append(names, name)
	}

	for _, obj := range listing.Objects {
		fullPath := "/" + obj.Key

		name := leafName(fullPath, path)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}

		if b.filter != nil {
			matched, err := b.filter.Match(fullPath, name, false, obj.Size)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			if !matched {
				continue
			}
		}

		seen[name] = struct{}{}

		if err := b.attrs.Insert(ctx, fullPath, attr.File(obj.Size, obj.LastModified)); err != nil {
			return nil, errors.WithStack(err)
		}

		names = append(names, name)
	}

	return names, nil
}

// listPrefix converts an absolute path into the store-relative listing
// prefix: empty for root, otherwise the path with the leading delimiter
// stripped and a trailing delimiter appended.
func listPrefix(path string) string {
	if path == "/" {
		return ""
	}

	return strings.TrimPrefix(path, "/") + store.Delimiter
}

// storeKey converts an absolute path into the store-relative key.
func storeKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// leafName extracts the child's leaf name relative to its parent directory.
// Returns "" for entries that are not an immediate child (malformed keys
// containing empty segments).
func leafName(fullPath string, dir string) string {
	parent := dir
	if parent != "/" {
		parent += "/"
	}

	name := strings.TrimPrefix(fullPath, parent)
	if name == fullPath || name == "" || strings.Contains(name, "/") {
		return ""
	}

	return name
}
