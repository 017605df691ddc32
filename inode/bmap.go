package inode

import (
	"fmt"

	"github.com/mit-pdos/nufs/buf"
	"github.com/mit-pdos/nufs/common"
)

func (t *Table) index(ib common.Bnum) *buf.Buf {
	return buf.MkBlockBuf(t.fs.Disk, ib)
}

// BlockNo returns the disk block holding file block k, or NULLBNUM past the
// end of the file.
func (t *Table) BlockNo(ip *Inode, k uint64) common.Bnum {
	n := ip.NBlocks()
	if n > common.MAXBLOCKS {
		panic(fmt.Errorf("BlockNo: %v too large", ip))
	}
	if k >= n {
		return common.NULLBNUM
	}
	if !Indexed(n) {
		return ip.Block
	}
	return t.index(ip.Block).BnumGet(k)
}

// IndexEntry reads entry k of index block ib.
func (t *Table) IndexEntry(ib common.Bnum, k uint64) common.Bnum {
	return t.index(ib).BnumGet(k)
}

// SetIndexEntry stores bn as entry k of index block ib.
func (t *Table) SetIndexEntry(ib common.Bnum, k uint64, bn common.Bnum) {
	if k >= common.NINDIRECT {
		panic(fmt.Errorf("SetIndexEntry: entry %d too large", k))
	}
	t.index(ib).BnumPut(k, bn)
}
