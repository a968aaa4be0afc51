// Package fuse exposes a bridge as a FUSE mount. Nodes track their absolute
// path and dispatch every kernel call into the bridge; the mount itself
// holds no state beyond the process identity stamped on synthesized
// attributes.
package fuse

import (
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/pkg/errors"

	"github.com/zenkj/ossfs/bridge"
)

// Identity is the uid/gid stamped on every synthesized attribute, captured
// once at startup.
type Identity struct {
	UID uint32
	GID uint32
}

// CurrentIdentity returns the identity of the running process.
func CurrentIdentity() Identity {
	return Identity{
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
	}
}

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted. It is
	// created if it does not exist.
	Mountpoint string

	// Bridge dispatches attribute lookups, directory expansions and
	// byte-range reads against the bucket.
	Bridge bridge.Operations

	// Identity stamps the uid/gid of every synthesized attribute.
	Identity Identity

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Mount mounts the bucket filesystem at the configured mountpoint. The
// caller must call Unmount on the returned server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if options.Bridge == nil {
		return nil, errors.New("bridge is required")
	}

	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create mountpoint '%s'", options.Mountpoint)
	}

	root := &dirNode{
		shared: &options,
		path:   "/",
	}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "ossfs",
			Name:       "ossfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not mount filesystem at '%s'", options.Mountpoint)
	}

	options.Logger.Info("bucket filesystem mounted", "mountpoint", options.Mountpoint)

	return server, nil
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)

// errno translates bridge errors into protocol failure codes.
func errno(err error) syscall.Errno {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, bridge.ErrIsDirectory):
		return syscall.EISDIR
	default:
		return syscall.EIO
	}
}
