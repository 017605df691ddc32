package inode

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/nufs/alloc"
	"github.com/mit-pdos/nufs/buf"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/super"
	"github.com/mit-pdos/nufs/util"
)

// Table is the fixed array of inode records in block 0 together with the
// inode bitmap that says which records are live.
type Table struct {
	fs     *super.FsSuper
	bitmap *alloc.Alloc
}

func MkTable(fs *super.FsSuper) *Table {
	bm := fs.Region(fs.InodeBitmapAddr(), fs.InodeBitmapSize())
	t := &Table{
		fs:     fs,
		bitmap: alloc.MkAlloc(bm, fs.NInode),
	}
	t.bitmap.Reserve(fs.NReserved)
	return t
}

func (t *Table) Bitmap() *alloc.Alloc {
	return t.bitmap
}

func (t *Table) NumFree() uint64 {
	return t.bitmap.NumFree()
}

func (t *Table) record(inum common.Inum) *buf.Buf {
	a := t.fs.Inum2Addr(inum)
	return buf.MkBufLoad(a, common.INODESZ, t.fs.Disk.Block(a.Blkno))
}

// IsAllocated reports whether inum names a live inode.
func (t *Table) IsAllocated(inum common.Inum) bool {
	if uint64(inum) >= t.fs.NInode {
		return false
	}
	return t.bitmap.Get(uint64(inum))
}

// Get loads a live inode.
func (t *Table) Get(inum common.Inum) (*Inode, error) {
	if !t.IsAllocated(inum) {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotFound)
	}
	return Decode(t.record(inum), inum), nil
}

// Put stores ip into its record.
func (t *Table) Put(ip *Inode) {
	util.DPrintf(10, "Put %v\n", ip)
	copy(t.record(ip.Inum).Data, ip.Encode())
}

// Alloc takes the lowest free inode number and zeroes its record.
func (t *Table) Alloc() (*Inode, error) {
	n, err := t.bitmap.AllocNum(t.fs.NReserved, t.fs.NInode)
	if err != nil {
		if errors.Is(err, common.ErrOutOfSpace) {
			return nil, fmt.Errorf("alloc inode: %w", common.ErrOutOfInodes)
		}
		return nil, err
	}
	ip := &Inode{Inum: common.Inum(n)}
	t.record(ip.Inum).Zero()
	util.DPrintf(5, "alloc inode %d\n", n)
	return ip, nil
}

// Free zeroes the record and releases the number. The caller must already
// have released the inode's blocks.
func (t *Table) Free(ip *Inode) {
	if ip.Block != common.NULLBNUM {
		panic(fmt.Errorf("Free: %v still owns blocks", ip))
	}
	t.record(ip.Inum).Zero()
	t.bitmap.FreeNum(uint64(ip.Inum))
	util.DPrintf(5, "free inode %d\n", ip.Inum)
}
