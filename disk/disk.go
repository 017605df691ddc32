package disk

import (
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/nufs/common"
)

// Block is a BlockSize-byte view into the image
type Block = disk.Block

const BlockSize uint64 = common.BlockSize

// Disk provides addressable access to a fixed-size block image.
type Disk interface {
	// Block returns the bytes of block a. The slice aliases the image:
	// writes to it are writes to the disk.
	//
	// Expects a < Size().
	Block(a uint64) Block

	// Size reports how big the disk is, in blocks
	Size() uint64

	// Barrier ensures data is persisted.
	Barrier() error

	// Close releases the image. Blocks returned earlier must not be used
	// afterwards.
	Close() error
}
