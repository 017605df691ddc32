package disk

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/util"
)

var _ Disk = (*FileDisk)(nil)

// FileDisk is an image file mapped shared into memory, so writes through a
// Block are visible to every other mapping of the same file.
type FileDisk struct {
	fd        int
	numBlocks uint64
	mem       []byte
}

func NewFileDisk(path string, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, common.ErrIo)
	}
	sz := numBlocks * BlockSize
	err = unix.Ftruncate(fd, int64(sz))
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("resize %s to %d bytes: %v: %w", path, sz, err, common.ErrIo)
	}
	mem, err := unix.Mmap(fd, 0, int(sz), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %v: %w", path, err, common.ErrIo)
	}
	util.DPrintf(1, "NewFileDisk: %s %d blocks\n", path, numBlocks)
	return &FileDisk{fd: fd, numBlocks: numBlocks, mem: mem}, nil
}

func (d *FileDisk) Block(a uint64) Block {
	if a >= d.numBlocks {
		panic(fmt.Errorf("out-of-bounds block %v", a))
	}
	off := a * BlockSize
	return d.mem[off : off+BlockSize : off+BlockSize]
}

func (d *FileDisk) Size() uint64 {
	return d.numBlocks
}

func (d *FileDisk) Barrier() error {
	err := unix.Msync(d.mem, unix.MS_SYNC)
	if err != nil {
		return fmt.Errorf("msync: %v: %w", err, common.ErrIo)
	}
	util.DPrintf(5, "barrier\n")
	return nil
}

func (d *FileDisk) Close() error {
	if d.mem == nil {
		return nil
	}
	err := unix.Munmap(d.mem)
	d.mem = nil
	if err != nil {
		unix.Close(d.fd)
		return fmt.Errorf("munmap: %v: %w", err, common.ErrIo)
	}
	err = unix.Close(d.fd)
	if err != nil {
		return fmt.Errorf("close: %v: %w", err, common.ErrIo)
	}
	return nil
}

/////////////////////////

var _ Disk = (*MemDisk)(nil)

// MemDisk keeps the image in process memory; it does not survive Close.
type MemDisk struct {
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) *MemDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return &MemDisk{blocks: blocks}
}

func (d *MemDisk) Block(a uint64) Block {
	if a >= uint64(len(d.blocks)) {
		panic(fmt.Errorf("out-of-bounds block %v", a))
	}
	return d.blocks[a][:]
}

func (d *MemDisk) Size() uint64 {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks))
}

func (d *MemDisk) Barrier() error { return nil }

func (d *MemDisk) Close() error { return nil }
