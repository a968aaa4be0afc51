package fuse

import (
	"context"
	"path"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/zenkj/ossfs/attr"
)

// dirNode is a synthesized directory. It carries its absolute path and
// resolves children through the bridge's attribute cache.
type dirNode struct {
	gofuse.Inode
	shared *Options
	path   string
}

var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)
var _ gofuse.NodeCreater = (*dirNode)(nil)
var _ gofuse.NodeMkdirer = (*dirNode)(nil)
var _ gofuse.NodeUnlinker = (*dirNode)(nil)
var _ gofuse.NodeRmdirer = (*dirNode)(nil)
var _ gofuse.NodeRenamer = (*dirNode)(nil)

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := path.Join(d.path, name)

	record, err := d.shared.Bridge.Getattr(ctx, childPath)
	if err != nil {
		return nil, errno(err)
	}

	fillAttr(&out.Attr, record, d.shared.Identity)

	if record.IsDir() {
		child := d.NewInode(ctx, &dirNode{
			shared: d.shared,
			path:   childPath,
		}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
		return child, 0
	}

	child := d.NewInode(ctx, &fileNode{
		shared: d.shared,
		path:   childPath,
	}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	return child, 0
}

func (d *dirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	names, err := d.shared.Bridge.Readdir(ctx, d.path)
	if err != nil {
		d.shared.Logger.Error("directory expansion failed", "path", d.path, "error", err)
		return nil, errno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))

	for _, name := range names {
		mode := uint32(syscall.S_IFREG)

		if name == "." || name == ".." {
			mode = syscall.S_IFDIR
		} else if record, err := d.shared.Bridge.Getattr(ctx, path.Join(d.path, name)); err == nil && record.IsDir() {
			mode = syscall.S_IFDIR
		}

		entries = append(entries, fuse.DirEntry{
			Name: name,
			Mode: mode,
		})
	}

	return gofuse.NewListDirStream(entries), 0
}

func (d *dirNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	record, err := d.shared.Bridge.Getattr(ctx, d.path)
	if err != nil {
		return errno(err)
	}

	fillAttr(&out.Attr, record, d.shared.Identity)

	return 0
}

// Mutating calls fail cleanly instead of pretending success: a deceptive
// zero-length write acknowledgement would make callers spin on retries.

func (d *dirNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}

func (d *dirNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

func (d *dirNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	return syscall.EROFS
}

// fileNode is a bucket object surfaced as a regular read-only file.
type fileNode struct {
	gofuse.Inode
	shared *Options
	path   string
}

var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeSetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)
var _ gofuse.NodeReader = (*fileNode)(nil)

func (f *fileNode) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	record, err := f.shared.Bridge.Getattr(ctx, f.path)
	if err != nil {
		return errno(err)
	}

	fillAttr(&out.Attr, record, f.shared.Identity)

	return 0
}

func (f *fileNode) Setattr(ctx context.Context, fh gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (f *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	return nil, 0, 0
}

func (f *fileNode) Read(ctx context.Context, fh gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := f.shared.Bridge.Read(ctx, f.path, len(dest), off)
	if err != nil {
		f.shared.Logger.Error("read failed", "path", f.path, "offset", off, "error", err)
		return nil, errno(err)
	}

	return fuse.ReadResultData(data), 0
}

func fillAttr(out *fuse.Attr, record attr.Record, identity Identity) {
	if record.IsDir() {
		out.Mode = syscall.S_IFDIR | 0o755
	} else {
		out.Mode = syscall.S_IFREG | 0o644
	}

	out.Size = uint64(record.Size)
	out.Owner = fuse.Owner{
		Uid: identity.UID,
		Gid: identity.GID,
	}

	modTime := record.ModTime
	out.SetTimes(&modTime, &modTime, &modTime)
}
