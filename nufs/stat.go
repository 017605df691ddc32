package nufs

import (
	"time"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/dir"
	"github.com/mit-pdos/nufs/inode"
)

// Every file is a regular file readable by all and writable by its owner.
const FileMode uint32 = 0100644

type Attr struct {
	Inum   common.Inum
	Size   uint64
	Mode   uint32
	Blocks uint64 // image blocks owned, the index block included
	Atime  time.Time
	Mtime  time.Time
}

type Statfs struct {
	BlockSize  uint64
	Blocks     uint64
	BlocksFree uint64
	Inodes     uint64
	InodesFree uint64
	NameLen    uint64
}

func (nfs *Nufs) attr(ip *inode.Inode) *Attr {
	a := &Attr{
		Inum:   ip.Inum,
		Size:   ip.Size,
		Mode:   FileMode,
		Blocks: ip.NBlocks(),
		Atime:  nfs.opened,
		Mtime:  nfs.opened,
	}
	if ip.Indexed() {
		a.Blocks++
	}
	if t, ok := nfs.times[ip.Inum]; ok {
		a.Atime = t.atime
		a.Mtime = t.mtime
	}
	return a
}

func (nfs *Nufs) Stat(path string) (*Attr, error) {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	inum, err := nfs.lookup(path)
	if err != nil {
		return nil, err
	}
	ip, err := nfs.getInode(inum)
	if err != nil {
		return nil, err
	}
	return nfs.attr(ip), nil
}

func (nfs *Nufs) StatInum(inum common.Inum) (*Attr, error) {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	ip, err := nfs.getInode(inum)
	if err != nil {
		return nil, err
	}
	return nfs.attr(ip), nil
}

// List returns the directory in slot order. Names carry the leading slash.
func (nfs *Nufs) List() []dir.Entry {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	return nfs.dir.Entries()
}

func (nfs *Nufs) Statfs() *Statfs {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	return &Statfs{
		BlockSize:  common.BlockSize,
		Blocks:     nfs.fs.NBlock,
		BlocksFree: nfs.balloc.NumFree(),
		Inodes:     nfs.fs.NInode,
		InodesFree: nfs.itab.NumFree(),
		NameLen:    common.MAXNAMELEN - 1,
	}
}

// Utimens sets the access and modification times; a nil time is left alone.
// Times are not stored in the image and reset when it is reopened.
func (nfs *Nufs) Utimens(inum common.Inum, atime *time.Time, mtime *time.Time) error {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()
	ip, err := nfs.getInode(inum)
	if err != nil {
		return err
	}
	a := nfs.attr(ip)
	t := times{atime: a.Atime, mtime: a.Mtime}
	if atime != nil {
		t.atime = *atime
	}
	if mtime != nil {
		t.mtime = *mtime
	}
	nfs.times[inum] = t
	return nil
}
