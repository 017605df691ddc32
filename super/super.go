// Package super computes where every region of the image lives.
//
// Block 0 holds the block bitmap, the inode bitmap and the inode table, back
// to back. The directory table starts at block 1 and holds one fixed-size
// name slot per inode. Every block from NReserved on is a data block.
package super

import (
	"fmt"

	"github.com/mit-pdos/nufs/addr"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/disk"
	"github.com/mit-pdos/nufs/util"
)

type FsSuper struct {
	Disk      disk.Disk
	NBlock    uint64
	NInode    uint64
	NReserved uint64
}

func MkFsSuper(d disk.Disk) *FsSuper {
	return &FsSuper{
		Disk:      d,
		NBlock:    d.Size(),
		NInode:    common.NUMINODES,
		NReserved: common.NRESERVED,
	}
}

func (fs *FsSuper) BlockBitmapAddr() addr.Addr {
	return addr.MkAddr(0, 0)
}

func (fs *FsSuper) BlockBitmapSize() uint64 {
	return util.RoundUp(fs.NBlock, 8)
}

func (fs *FsSuper) InodeBitmapAddr() addr.Addr {
	return addr.MkAddr(0, fs.BlockBitmapSize())
}

func (fs *FsSuper) InodeBitmapSize() uint64 {
	return util.RoundUp(fs.NInode, 8)
}

func (fs *FsSuper) InodeStart() addr.Addr {
	return addr.MkAddr(0, fs.BlockBitmapSize()+fs.InodeBitmapSize())
}

func (fs *FsSuper) DirStart() addr.Addr {
	return addr.MkAddr(1, 0)
}

func (fs *FsSuper) DataStart() common.Bnum {
	return fs.NReserved
}

func (fs *FsSuper) Inum2Addr(inum common.Inum) addr.Addr {
	return addr.MkSlotAddr(fs.InodeStart(), uint64(inum), common.INODESZ)
}

func (fs *FsSuper) Dnum2Addr(dnum uint64) addr.Addr {
	return addr.MkSlotAddr(fs.DirStart(), dnum, common.DIRENTSZ)
}

// Validate checks once, before any view is handed out, that the regions fit
// where the layout puts them.
func (fs *FsSuper) Validate() error {
	if fs.NBlock%8 != 0 {
		return fmt.Errorf("block count %d is not a multiple of 8", fs.NBlock)
	}
	if fs.NInode%8 != 0 {
		return fmt.Errorf("inode count %d is not a multiple of 8", fs.NInode)
	}
	if fs.NInode > fs.NBlock {
		return fmt.Errorf("%d inodes exceed %d directory slots", fs.NInode, fs.NBlock)
	}
	if fs.NReserved >= fs.NBlock || fs.NReserved >= fs.NInode {
		return fmt.Errorf("%d reserved units leave nothing to allocate", fs.NReserved)
	}
	itableEnd := fs.InodeStart().Off + fs.NInode*common.INODESZ
	if itableEnd > common.BlockSize {
		return fmt.Errorf("inode table ends at byte %d, past block 0", itableEnd)
	}
	dirEnd := fs.Dnum2Addr(fs.NBlock).Flatid()
	if dirEnd > fs.NReserved*common.BlockSize {
		return fmt.Errorf("directory table ends at byte %d, inside the data region", dirEnd)
	}
	return nil
}

// Region returns a view of sz bytes at a; the object must not cross a block
// boundary.
func (fs *FsSuper) Region(a addr.Addr, sz uint64) []byte {
	if a.Off+sz > common.BlockSize {
		panic(fmt.Errorf("object at %v of %d bytes crosses a block", a, sz))
	}
	blk := fs.Disk.Block(a.Blkno)
	return blk[a.Off : a.Off+sz : a.Off+sz]
}
