package addr

import (
	"github.com/mit-pdos/nufs/common"
)

// Addr identifies the start of a disk object.
//
// Blkno is the block number containing the object, and Off is the location of
// the object within the block (expressed as a byte offset). The size of the
// object is determined by the context in which Addr is used.
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bytes
}

// Flatid is the byte offset of the object from the start of the image.
func (a Addr) Flatid() uint64 {
	return uint64(a.Blkno)*common.BlockSize + a.Off
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkFlatAddr splits an image byte offset into block and in-block offset.
func MkFlatAddr(flat uint64) Addr {
	return MkAddr(flat/common.BlockSize, flat%common.BlockSize)
}

// MkSlotAddr addresses slot n of a table of sz-byte objects starting at
// start. Objects never straddle blocks: sz must divide the block size.
func MkSlotAddr(start Addr, n uint64, sz uint64) Addr {
	return MkFlatAddr(start.Flatid() + n*sz)
}
