// Package bridge serves a Nufs image through FUSE: one root directory node
// holding one node per file.
package bridge

import (
	"context"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/nufs"
	"github.com/mit-pdos/nufs/util"
)

const rootMode uint32 = fuse.S_IFDIR | 0755

type Root struct {
	fs.Inode
	nfs *nufs.Nufs
}

var _ = (fs.NodeLookuper)((*Root)(nil))
var _ = (fs.NodeReaddirer)((*Root)(nil))
var _ = (fs.NodeCreater)((*Root)(nil))
var _ = (fs.NodeMknoder)((*Root)(nil))
var _ = (fs.NodeUnlinker)((*Root)(nil))
var _ = (fs.NodeRenamer)((*Root)(nil))
var _ = (fs.NodeGetattrer)((*Root)(nil))
var _ = (fs.NodeSetattrer)((*Root)(nil))
var _ = (fs.NodeStatfser)((*Root)(nil))

func NewRoot(nfs *nufs.Nufs) *Root {
	return &Root{nfs: nfs}
}

func path(name string) string {
	return "/" + name
}

func fillAttr(a *nufs.Attr, out *fuse.Attr) {
	out.Ino = uint64(a.Inum)
	out.Size = a.Size
	out.Blocks = a.Blocks * (common.BlockSize / 512)
	out.Blksize = uint32(common.BlockSize)
	out.Mode = a.Mode
	out.Nlink = 1
	out.Uid = uint32(os.Getuid())
	out.Gid = uint32(os.Getgid())
	out.SetTimes(&a.Atime, &a.Mtime, &a.Mtime)
}

func (r *Root) newFile(ctx context.Context, a *nufs.Attr) *fs.Inode {
	f := &File{nfs: r.nfs, inum: a.Inum}
	return r.NewInode(ctx, f, fs.StableAttr{Mode: fuse.S_IFREG, Ino: uint64(a.Inum)})
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	a, err := r.nfs.Stat(path(name))
	util.DPrintf(1, "lookup(%s) -> %v\n", name, err)
	if err != nil {
		return nil, ToErrno(err)
	}
	fillAttr(a, &out.Attr)
	return r.newFile(ctx, a), 0
}

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	ents := r.nfs.List()
	list := make([]fuse.DirEntry, 0, len(ents))
	for _, e := range ents {
		list = append(list, fuse.DirEntry{
			Name: strings.TrimPrefix(e.Name, "/"),
			Ino:  uint64(e.Inum),
			Mode: fuse.S_IFREG,
		})
	}
	util.DPrintf(1, "readdir() -> %d entries\n", len(list))
	return fs.NewListDirStream(list), 0
}

func (r *Root) create(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	inum, err := r.nfs.Create(path(name))
	if err != nil {
		return nil, ToErrno(err)
	}
	a, err := r.nfs.StatInum(inum)
	if err != nil {
		return nil, ToErrno(err)
	}
	fillAttr(a, &out.Attr)
	return r.newFile(ctx, a), 0
}

func (r *Root) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	n, errno := r.create(ctx, name, out)
	util.DPrintf(1, "create(%s, %04o) -> %d\n", name, mode, errno)
	return n, nil, 0, errno
}

// Mknod only makes regular files.
func (r *Root) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if mode&syscall.S_IFMT != 0 && mode&syscall.S_IFMT != syscall.S_IFREG {
		return nil, syscall.EPERM
	}
	n, errno := r.create(ctx, name, out)
	util.DPrintf(1, "mknod(%s, %04o) -> %d\n", name, mode, errno)
	return n, errno
}

func (r *Root) Unlink(ctx context.Context, name string) syscall.Errno {
	errno := ToErrno(r.nfs.Delete(path(name)))
	util.DPrintf(1, "unlink(%s) -> %d\n", name, errno)
	return errno
}

func (r *Root) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if newParent.EmbeddedInode() != r.EmbeddedInode() {
		return syscall.EXDEV
	}
	var err error
	switch flags {
	case 0:
		err = r.nfs.Rename(path(name), path(newName))
	case unix.RENAME_NOREPLACE:
		err = r.nfs.RenameNoReplace(path(name), path(newName))
	default:
		return syscall.EINVAL
	}
	errno := ToErrno(err)
	util.DPrintf(1, "rename(%s => %s) -> %d\n", name, newName, errno)
	return errno
}

func (r *Root) fillRoot(out *fuse.Attr) {
	out.Ino = 1
	out.Mode = rootMode
	out.Nlink = 2
	out.Size = common.BlockSize
	out.Uid = uint32(os.Getuid())
	out.Gid = uint32(os.Getgid())
}

func (r *Root) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	r.fillRoot(&out.Attr)
	util.DPrintf(1, "getattr(/) -> {mode: %04o}\n", out.Mode)
	return 0
}

// Setattr on the directory is accepted and ignored.
func (r *Root) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	r.fillRoot(&out.Attr)
	return 0
}

func (r *Root) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	st := r.nfs.Statfs()
	out.Bsize = uint32(st.BlockSize)
	out.Frsize = uint32(st.BlockSize)
	out.Blocks = st.Blocks
	out.Bfree = st.BlocksFree
	out.Bavail = st.BlocksFree
	out.Files = st.Inodes
	out.Ffree = st.InodesFree
	out.NameLen = uint32(st.NameLen)
	return 0
}

type File struct {
	fs.Inode
	nfs  *nufs.Nufs
	inum common.Inum
}

var _ = (fs.NodeOpener)((*File)(nil))
var _ = (fs.NodeReader)((*File)(nil))
var _ = (fs.NodeWriter)((*File)(nil))
var _ = (fs.NodeGetattrer)((*File)(nil))
var _ = (fs.NodeSetattrer)((*File)(nil))
var _ = (fs.NodeFsyncer)((*File)(nil))
var _ = (fs.NodeFlusher)((*File)(nil))

// Open keeps no per-open state.
func (f *File) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	var errno syscall.Errno
	if flags&syscall.O_TRUNC != 0 {
		errno = ToErrno(f.nfs.Truncate(f.inum, 0))
	} else {
		_, err := f.nfs.StatInum(f.inum)
		errno = ToErrno(err)
	}
	util.DPrintf(1, "open(%d) -> %d\n", f.inum, errno)
	return nil, 0, errno
}

func (f *File) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off < 0 {
		return nil, syscall.EINVAL
	}
	b, err := f.nfs.Read(f.inum, uint64(off), uint64(len(dest)))
	util.DPrintf(1, "read(%d, %d bytes, @+%d) -> %d\n", f.inum, len(dest), off, len(b))
	if err != nil {
		return nil, ToErrno(err)
	}
	return fuse.ReadResultData(b), 0
}

func (f *File) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	if off < 0 {
		return 0, syscall.EINVAL
	}
	n, err := f.nfs.Write(f.inum, uint64(off), data)
	util.DPrintf(1, "write(%d, %d bytes, @+%d) -> %d\n", f.inum, len(data), off, n)
	if err != nil {
		return 0, ToErrno(err)
	}
	return uint32(n), 0
}

func (f *File) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	a, err := f.nfs.StatInum(f.inum)
	if err != nil {
		return ToErrno(err)
	}
	fillAttr(a, &out.Attr)
	util.DPrintf(1, "getattr(%d) -> {mode: %04o, size: %d}\n", f.inum, out.Mode, out.Size)
	return 0
}

// Setattr handles truncate and utimens; mode and owner changes are ignored.
func (f *File) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if sz, ok := in.GetSize(); ok {
		err := f.nfs.Truncate(f.inum, sz)
		util.DPrintf(1, "truncate(%d, %d bytes) -> %v\n", f.inum, sz, err)
		if err != nil {
			return ToErrno(err)
		}
	}
	var atime, mtime *time.Time
	if t, ok := in.GetATime(); ok {
		atime = &t
	}
	if t, ok := in.GetMTime(); ok {
		mtime = &t
	}
	if atime != nil || mtime != nil {
		if err := f.nfs.Utimens(f.inum, atime, mtime); err != nil {
			return ToErrno(err)
		}
	}
	return f.Getattr(ctx, fh, out)
}

func (f *File) Fsync(ctx context.Context, fh fs.FileHandle, flags uint32) syscall.Errno {
	return ToErrno(f.nfs.Barrier())
}

func (f *File) Flush(ctx context.Context, fh fs.FileHandle) syscall.Errno {
	return 0
}
