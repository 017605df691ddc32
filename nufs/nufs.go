// Package nufs is the filesystem: one flat directory of regular files kept in
// a single fixed-size image.
//
// A Nufs handle owns the image for its lifetime. Mutations (create, delete,
// rename, write, truncate, utimens) hold the handle's lock exclusively;
// lookups, reads and stats share it. There is no journal: a crash in the
// middle of a mutation can leave the bitmaps and the inode table disagreeing.
package nufs

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mit-pdos/nufs/alloc"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/dir"
	"github.com/mit-pdos/nufs/disk"
	"github.com/mit-pdos/nufs/inode"
	"github.com/mit-pdos/nufs/super"
	"github.com/mit-pdos/nufs/util"
)

type times struct {
	atime time.Time
	mtime time.Time
}

type Nufs struct {
	mu     *sync.RWMutex
	fs     *super.FsSuper
	balloc *alloc.Alloc
	itab   *inode.Table
	dir    dir.Directory
	times  map[common.Inum]times
	opened time.Time
}

// Open maps the image at path, creating it if it does not exist.
func Open(path string) (*Nufs, error) {
	d, err := disk.NewFileDisk(path, common.BlockCount)
	if err != nil {
		return nil, err
	}
	nfs, err := OpenDisk(d)
	if err != nil {
		d.Close()
		return nil, err
	}
	return nfs, nil
}

// OpenDisk builds a filesystem over d. The reserved blocks and inodes are
// marked used, which initializes a fresh image.
func OpenDisk(d disk.Disk) (*Nufs, error) {
	fs := super.MkFsSuper(d)
	if err := fs.Validate(); err != nil {
		return nil, fmt.Errorf("bad image: %v: %w", err, common.ErrIo)
	}
	bm := fs.Region(fs.BlockBitmapAddr(), fs.BlockBitmapSize())
	balloc := alloc.MkAlloc(bm, fs.NBlock)
	balloc.Reserve(fs.NReserved)
	nfs := &Nufs{
		mu:     new(sync.RWMutex),
		fs:     fs,
		balloc: balloc,
		itab:   inode.MkTable(fs),
		dir:    dir.MkSlotDir(fs),
		times:  make(map[common.Inum]times),
		opened: time.Now(),
	}
	util.DPrintf(1, "OpenDisk: %d blocks, %d free\n", fs.NBlock, balloc.NumFree())
	return nfs, nil
}

// Barrier flushes the image to the backing file.
func (nfs *Nufs) Barrier() error {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	return nfs.fs.Disk.Barrier()
}

// Close flushes and releases the image. The handle must not be used
// afterwards.
func (nfs *Nufs) Close() error {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()
	if err := nfs.fs.Disk.Barrier(); err != nil {
		nfs.fs.Disk.Close()
		return err
	}
	return nfs.fs.Disk.Close()
}

// resolve turns "/name" into the stored directory name. The root and
// anything that is not a single component do not name a file.
func resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") || path == "/" {
		return "", fmt.Errorf("path %q: %w", path, common.ErrNotFound)
	}
	if strings.ContainsAny(path[1:], "/\x00") {
		return "", fmt.Errorf("path %q: %w", path, common.ErrNotFound)
	}
	return path, nil
}

func (nfs *Nufs) lookup(path string) (common.Inum, error) {
	name, err := resolve(path)
	if err != nil {
		return common.NULLINUM, err
	}
	return nfs.dir.Lookup(name)
}

func (nfs *Nufs) getInode(inum common.Inum) (*inode.Inode, error) {
	return nfs.itab.Get(inum)
}

func (nfs *Nufs) touch(inum common.Inum) {
	now := time.Now()
	nfs.times[inum] = times{atime: now, mtime: now}
}
