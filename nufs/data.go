package nufs

import (
	"fmt"

	"github.com/mit-pdos/nufs/buf"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/inode"
	"github.com/mit-pdos/nufs/util"
)

// allocBlock takes the lowest free data block and zeroes it.
func (nfs *Nufs) allocBlock() (common.Bnum, error) {
	bn, err := nfs.balloc.AllocNum(nfs.fs.DataStart(), nfs.fs.NBlock)
	if err != nil {
		return common.NULLBNUM, err
	}
	buf.MkBlockBuf(nfs.fs.Disk, bn).Zero()
	return bn, nil
}

func (nfs *Nufs) freeBlock(bn common.Bnum) {
	if bn < nfs.fs.DataStart() || bn >= nfs.fs.NBlock {
		panic(fmt.Errorf("freeBlock: %d is not a data block", bn))
	}
	nfs.balloc.FreeNum(bn)
}

// grow allocates zeroed blocks until ip covers sz bytes. If the image runs
// out of blocks, everything allocated here is released and ip is restored.
func (nfs *Nufs) grow(ip *inode.Inode, sz uint64) error {
	have := ip.NBlocks()
	want := util.RoundUp(sz, common.BlockSize)
	if want <= have {
		ip.Size = sz
		return nil
	}
	if !inode.Indexed(want) {
		bn, err := nfs.allocBlock()
		if err != nil {
			return err
		}
		ip.Block = bn
		ip.Size = sz
		util.DPrintf(5, "grow %v: 1 new block\n", ip)
		return nil
	}

	var got []common.Bnum
	ib := ip.Block
	if !inode.Indexed(have) {
		bn, err := nfs.allocBlock()
		if err != nil {
			return err
		}
		got = append(got, bn)
		ib = bn
		if have == 1 {
			nfs.itab.SetIndexEntry(ib, 0, ip.Block)
		}
	}
	for k := have; k < want; k++ {
		bn, err := nfs.allocBlock()
		if err != nil {
			for j := have; j < k; j++ {
				nfs.itab.SetIndexEntry(ib, j, common.NULLBNUM)
			}
			for _, bn := range got {
				nfs.freeBlock(bn)
			}
			return err
		}
		got = append(got, bn)
		nfs.itab.SetIndexEntry(ib, k, bn)
	}
	ip.Block = ib
	ip.Size = sz
	util.DPrintf(5, "grow %v: %d new blocks\n", ip, len(got))
	return nil
}

// shrink releases the blocks past sz and zeroes the tail of the new last
// block. A file left with one block points at it directly again.
func (nfs *Nufs) shrink(ip *inode.Inode, sz uint64) {
	have := ip.NBlocks()
	want := util.RoundUp(sz, common.BlockSize)
	if inode.Indexed(have) {
		ib := ip.Block
		for k := want; k < have; k++ {
			nfs.freeBlock(nfs.itab.IndexEntry(ib, k))
			nfs.itab.SetIndexEntry(ib, k, common.NULLBNUM)
		}
		if !inode.Indexed(want) {
			ip.Block = common.NULLBNUM
			if want == 1 {
				ip.Block = nfs.itab.IndexEntry(ib, 0)
				nfs.itab.SetIndexEntry(ib, 0, common.NULLBNUM)
			}
			nfs.freeBlock(ib)
		}
	} else if have == 1 && want == 0 {
		nfs.freeBlock(ip.Block)
		ip.Block = common.NULLBNUM
	}
	ip.Size = sz
	if off := sz % common.BlockSize; off != 0 {
		blk := nfs.fs.Disk.Block(nfs.itab.BlockNo(ip, want-1))
		for i := off; i < common.BlockSize; i++ {
			blk[i] = 0
		}
	}
	util.DPrintf(5, "shrink %v\n", ip)
}

// Read returns up to n bytes of the file starting at off; nothing at or past
// the end of the file.
func (nfs *Nufs) Read(inum common.Inum, off uint64, n uint64) ([]byte, error) {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()

	util.DPrintf(3, "Read %d off %d n %d\n", inum, off, n)
	ip, err := nfs.getInode(inum)
	if err != nil {
		return nil, err
	}
	if off >= ip.Size {
		return []byte{}, nil
	}
	cnt := util.Min(n, ip.Size-off)
	data := make([]byte, 0, cnt)
	for uint64(len(data)) < cnt {
		pos := off + uint64(len(data))
		blk := nfs.fs.Disk.Block(nfs.itab.BlockNo(ip, pos/common.BlockSize))
		boff := pos % common.BlockSize
		m := util.Min(common.BlockSize-boff, cnt-uint64(len(data)))
		data = append(data, blk[boff:boff+m]...)
	}
	return data, nil
}

// Write stores data at off, growing the file as needed; bytes between the
// old end and off read as zero. It never shrinks the file.
func (nfs *Nufs) Write(inum common.Inum, off uint64, data []byte) (uint64, error) {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()

	cnt := uint64(len(data))
	util.DPrintf(3, "Write %d off %d cnt %d\n", inum, off, cnt)
	ip, err := nfs.getInode(inum)
	if err != nil {
		return 0, err
	}
	if cnt == 0 {
		return 0, nil
	}
	if util.SumOverflows(off, cnt) || off+cnt > common.MAXFILESZ {
		return 0, fmt.Errorf("write %d bytes at %d: %w", cnt, off, common.ErrFileTooLarge)
	}
	if off+cnt > ip.Size {
		if err := nfs.grow(ip, off+cnt); err != nil {
			return 0, err
		}
	}
	var done uint64
	for done < cnt {
		pos := off + done
		blk := nfs.fs.Disk.Block(nfs.itab.BlockNo(ip, pos/common.BlockSize))
		done += uint64(copy(blk[pos%common.BlockSize:], data[done:]))
	}
	nfs.itab.Put(ip)
	nfs.touch(inum)
	return cnt, nil
}

// Truncate sets the file size. Growing allocates zeroed blocks right away.
func (nfs *Nufs) Truncate(inum common.Inum, sz uint64) error {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()

	util.DPrintf(3, "Truncate %d to %d\n", inum, sz)
	ip, err := nfs.getInode(inum)
	if err != nil {
		return err
	}
	if sz > common.MAXFILESZ {
		return fmt.Errorf("truncate to %d: %w", sz, common.ErrFileTooLarge)
	}
	if sz > ip.Size {
		if err := nfs.grow(ip, sz); err != nil {
			return err
		}
	} else if sz < ip.Size {
		nfs.shrink(ip, sz)
	}
	nfs.itab.Put(ip)
	nfs.touch(inum)
	return nil
}
