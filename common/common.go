package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	BlockSize  uint64 = disk.BlockSize
	BlockCount uint64 = 256

	NUMINODES uint64 = 256
	INODESZ   uint64 = 8  // on-disk size
	DIRENTSZ  uint64 = 64 // on-disk size

	// Blocks 0..4 hold metadata; inode numbers 0..4 are held back the same
	// way so that slot numbers and data block numbers start together.
	NRESERVED uint64 = 5

	MAXNAMELEN uint64 = DIRENTSZ - 1 // room for the NUL terminator

	// A file of one block points at it directly; a larger file points at
	// an index block of NINDIRECT block numbers.
	BNUMSZ    uint64 = 4
	NINDIRECT uint64 = BlockSize / BNUMSZ
	MAXBLOCKS uint64 = NINDIRECT
	MAXFILESZ uint64 = MAXBLOCKS * BlockSize
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = 0
	NULLBNUM Bnum = 0
)
