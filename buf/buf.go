// buf gives typed access to sub-block disk objects in place
package buf

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/nufs/addr"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/disk"
	"github.com/mit-pdos/nufs/util"
)

// A Buf is a view of a disk object (an inode, a directory slot, a bitmap, or
// a whole block). Data aliases the disk block, so there is nothing to install
// or flush.
type Buf struct {
	Addr addr.Addr
	Sz   uint64 // number of bytes
	Data []byte
}

// Load the bytes of a disk block into a new buf, as specified by addr
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	if addr.Off+sz > uint64(len(blk)) {
		panic("MkBufLoad: object crosses block")
	}
	data := blk[addr.Off : addr.Off+sz : addr.Off+sz]
	b := &Buf{
		Addr: addr,
		Sz:   sz,
		Data: data,
	}
	util.DPrintf(20, "MkBufLoad: %v sz %d\n", addr, sz)
	return b
}

// Load a whole block
func MkBlockBuf(d disk.Disk, bn common.Bnum) *Buf {
	return MkBufLoad(addr.MkAddr(bn, 0), common.BlockSize, d.Block(bn))
}

// Zero clears the object.
func (buf *Buf) Zero() {
	for i := range buf.Data {
		buf.Data[i] = 0
	}
}

// IsZero reports whether every byte of the object is zero.
func (buf *Buf) IsZero() bool {
	for _, b := range buf.Data {
		if b != 0 {
			return false
		}
	}
	return true
}

// BnumGet reads the off-th block pointer of the object.
func (buf *Buf) BnumGet(off uint64) common.Bnum {
	o := off * common.BNUMSZ
	dec := marshal.NewDec(buf.Data[o : o+common.BNUMSZ])
	return common.Bnum(dec.GetInt32())
}

// BnumPut writes the off-th block pointer of the object.
func (buf *Buf) BnumPut(off uint64, v common.Bnum) {
	o := off * common.BNUMSZ
	enc := marshal.NewEnc(common.BNUMSZ)
	enc.PutInt32(uint32(v))
	copy(buf.Data[o:o+common.BNUMSZ], enc.Finish())
}
