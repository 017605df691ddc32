package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/nufs/buf"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/util"
)

// Inode is the decoded form of an 8-byte inode record: size and block. Block
// is the only data block of a one-block file and the index block of a larger
// one. A zero block number means "none".
type Inode struct {
	Inum  common.Inum
	Size  uint64
	Block common.Bnum
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d size %d block %d", ip.Inum, ip.Size, ip.Block)
}

// NBlocks is the number of data blocks a file of this size owns.
func (ip *Inode) NBlocks() uint64 {
	return util.RoundUp(ip.Size, common.BlockSize)
}

// Indexed reports whether Block names an index block.
func (ip *Inode) Indexed() bool {
	return Indexed(ip.NBlocks())
}

func Indexed(nblocks uint64) bool {
	return nblocks > 1
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ip.Size))
	enc.PutInt32(uint32(ip.Block))
	return enc.Finish()
}

func Decode(b *buf.Buf, inum common.Inum) *Inode {
	ip := &Inode{Inum: inum}
	dec := marshal.NewDec(b.Data)
	ip.Size = uint64(dec.GetInt32())
	ip.Block = common.Bnum(dec.GetInt32())
	return ip
}

// Check reports a violation of the record invariants.
func (ip *Inode) Check() error {
	if ip.Block == common.NULLBNUM && ip.Size != 0 {
		return fmt.Errorf("inode %d: size %d with no block", ip.Inum, ip.Size)
	}
	if ip.Block != common.NULLBNUM && ip.Size == 0 {
		return fmt.Errorf("inode %d: empty but owns block %d", ip.Inum, ip.Block)
	}
	if ip.Size > common.MAXFILESZ {
		return fmt.Errorf("inode %d: size %d too large", ip.Inum, ip.Size)
	}
	return nil
}
