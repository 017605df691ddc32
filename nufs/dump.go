package nufs

import (
	"fmt"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/inode"
)

type InodeDump struct {
	Inum   common.Inum   `yaml:"inum"`
	Name   string        `yaml:"name"`
	Size   uint64        `yaml:"size"`
	Block  common.Bnum   `yaml:"block"`
	Index  common.Bnum   `yaml:"index,omitempty"`
	Blocks []common.Bnum `yaml:"blocks,flow"`
}

// Dump describes the whole image for inspection.
type Dump struct {
	BlockSize   uint64      `yaml:"block_size"`
	Blocks      uint64      `yaml:"blocks"`
	BlocksFree  uint64      `yaml:"blocks_free"`
	Inodes      uint64      `yaml:"inodes"`
	InodesFree  uint64      `yaml:"inodes_free"`
	BlockBitmap string      `yaml:"block_bitmap"`
	InodeBitmap string      `yaml:"inode_bitmap"`
	Files       []InodeDump `yaml:"files"`
}

func (nfs *Nufs) inDataRegion(bn common.Bnum) bool {
	return bn >= nfs.fs.DataStart() && bn < nfs.fs.NBlock
}

// readable reports whether ip's block pointers can be followed.
func (nfs *Nufs) readable(ip *inode.Inode) bool {
	if ip.Check() != nil {
		return false
	}
	return !ip.Indexed() || nfs.inDataRegion(ip.Block)
}

func (nfs *Nufs) fileBlocks(ip *inode.Inode) []common.Bnum {
	var bns []common.Bnum
	for k := uint64(0); k < ip.NBlocks(); k++ {
		bns = append(bns, nfs.itab.BlockNo(ip, k))
	}
	return bns
}

func (nfs *Nufs) Dump() *Dump {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	d := &Dump{
		BlockSize:   common.BlockSize,
		Blocks:      nfs.fs.NBlock,
		BlocksFree:  nfs.balloc.NumFree(),
		Inodes:      nfs.fs.NInode,
		InodesFree:  nfs.itab.NumFree(),
		BlockBitmap: nfs.balloc.String(),
		InodeBitmap: nfs.itab.Bitmap().String(),
	}
	for _, e := range nfs.dir.Entries() {
		ip, err := nfs.getInode(e.Inum)
		if err != nil {
			d.Files = append(d.Files, InodeDump{Inum: e.Inum, Name: e.Name})
			continue
		}
		f := InodeDump{Inum: ip.Inum, Name: e.Name, Size: ip.Size, Block: ip.Block}
		if nfs.readable(ip) {
			if ip.Indexed() {
				f.Index = ip.Block
			}
			f.Blocks = nfs.fileBlocks(ip)
		}
		d.Files = append(d.Files, f)
	}
	return d
}

// Check verifies that the bitmaps, the inode table and the directory agree:
// every live inode is named and well formed, every used data block has
// exactly one owner, and nothing owned is marked free.
func (nfs *Nufs) Check() []error {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()

	var errs []error
	owner := make(map[common.Bnum]common.Inum)
	claim := func(bn common.Bnum, inum common.Inum) bool {
		if !nfs.inDataRegion(bn) {
			errs = append(errs, fmt.Errorf("inode %d: block %d outside the data region", inum, bn))
			return false
		}
		if o, ok := owner[bn]; ok {
			errs = append(errs, fmt.Errorf("block %d owned by inodes %d and %d", bn, o, inum))
			return true
		}
		owner[bn] = inum
		if !nfs.balloc.Get(bn) {
			errs = append(errs, fmt.Errorf("inode %d: block %d marked free", inum, bn))
		}
		return true
	}

	named := make(map[common.Inum]bool)
	for _, e := range nfs.dir.Entries() {
		named[e.Inum] = true
		if !nfs.itab.IsAllocated(e.Inum) {
			errs = append(errs, fmt.Errorf("%s names free inode %d", e.Name, e.Inum))
		}
	}
	for i := nfs.fs.NReserved; i < nfs.fs.NInode; i++ {
		inum := common.Inum(i)
		ip, err := nfs.getInode(inum)
		if err != nil {
			continue
		}
		if !named[inum] {
			errs = append(errs, fmt.Errorf("inode %d has no name", inum))
		}
		if err := ip.Check(); err != nil {
			errs = append(errs, err)
			continue
		}
		if ip.Indexed() && !claim(ip.Block, inum) {
			continue
		}
		bns := nfs.fileBlocks(ip)
		ok := true
		for _, bn := range bns {
			ok = claim(bn, inum) && ok
		}
		if off := ip.Size % common.BlockSize; ok && off != 0 {
			blk := nfs.fs.Disk.Block(bns[len(bns)-1])
			for i := off; i < common.BlockSize; i++ {
				if blk[i] != 0 {
					errs = append(errs, fmt.Errorf("inode %d: byte %d past the end is not zero", inum, i))
					break
				}
			}
		}
	}
	for bn := nfs.fs.DataStart(); bn < nfs.fs.NBlock; bn++ {
		if _, ok := owner[bn]; !ok && nfs.balloc.Get(bn) {
			errs = append(errs, fmt.Errorf("block %d used but not owned", bn))
		}
	}
	return errs
}
