package inode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/disk"
	"github.com/mit-pdos/nufs/super"
)

func mkTable() (*super.FsSuper, *Table) {
	fs := super.MkFsSuper(disk.NewMemDisk(common.BlockCount))
	return fs, MkTable(fs)
}

func TestEncodeLayout(t *testing.T) {
	ip := &Inode{Inum: 5, Size: 0x0102, Block: 7}
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 7, 0, 0, 0}, ip.Encode())
}

// Records are {int size; int block;} packed back to back after the bitmaps.
func TestDecodeAtRecordStride(t *testing.T) {
	fs, tbl := mkTable()
	tbl.Bitmap().MarkUsed(6)
	tbl.Bitmap().MarkUsed(7)
	copy(fs.Disk.Block(0)[64+8*6:], []byte{5, 0, 0, 0, 7, 0, 0, 0})
	copy(fs.Disk.Block(0)[64+8*7:], []byte{0, 0x20, 0, 0, 9, 0, 0, 0})

	ip, err := tbl.Get(6)
	require.NoError(t, err)
	assert.Equal(t, &Inode{Inum: 6, Size: 5, Block: 7}, ip)
	ip, err = tbl.Get(7)
	require.NoError(t, err)
	assert.Equal(t, &Inode{Inum: 7, Size: 0x2000, Block: 9}, ip)

	// the last record still ends inside block 0
	a := fs.Inum2Addr(common.Inum(common.NUMINODES - 1))
	assert.Equal(t, uint64(0), a.Blkno)
	assert.Equal(t, uint64(64+8*255), a.Off)
}

func TestAllocGetPut(t *testing.T) {
	assert := assert.New(t)
	fs, tbl := mkTable()

	ip, err := tbl.Alloc()
	require.NoError(t, err)
	assert.Equal(common.Inum(5), ip.Inum, "first inode after the reserved ones")
	assert.Equal(uint64(0), ip.Size)
	assert.Equal(common.NULLBNUM, ip.Block)

	ip.Size = 100
	ip.Block = 42
	tbl.Put(ip)

	ip2, err := tbl.Get(5)
	require.NoError(t, err)
	assert.Equal(ip, ip2)

	// the record sits where the layout says
	rec := fs.Disk.Block(0)[64+5*8 : 64+6*8]
	assert.Equal([]byte{100, 0, 0, 0, 42, 0, 0, 0}, []byte(rec))
	// and the bitmap bit is set
	assert.Equal(byte(1<<5|0x1F), fs.Disk.Block(0)[32])
}

func TestGetUnallocated(t *testing.T) {
	_, tbl := mkTable()
	_, err := tbl.Get(6)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = tbl.Get(common.Inum(common.NUMINODES))
	assert.True(t, errors.Is(err, common.ErrNotFound), "out of range")
	_, err = tbl.Get(0)
	assert.True(t, errors.Is(err, common.ErrNotFound), "reserved inodes are never live")
}

func TestAllocZeroesStaleRecord(t *testing.T) {
	fs, tbl := mkTable()
	copy(fs.Region(fs.Inum2Addr(5), common.INODESZ), []byte{9, 9, 9, 9, 9, 9, 9, 9})
	ip, err := tbl.Alloc()
	require.NoError(t, err)
	ip, err = tbl.Get(ip.Inum)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ip.Size)
	assert.Equal(t, common.NULLBNUM, ip.Block)
}

func TestFree(t *testing.T) {
	assert := assert.New(t)
	_, tbl := mkTable()
	free := tbl.NumFree()
	ip, _ := tbl.Alloc()
	ip.Size = 3
	ip.Block = 11
	tbl.Put(ip)

	assert.Panics(func() { tbl.Free(ip) }, "blocks must be released first")

	ip.Size = 0
	ip.Block = 0
	tbl.Free(ip)
	assert.False(tbl.IsAllocated(ip.Inum))
	assert.Equal(free, tbl.NumFree())

	ip2, _ := tbl.Alloc()
	assert.Equal(ip.Inum, ip2.Inum, "freed inode reused")
}

func TestOutOfInodes(t *testing.T) {
	_, tbl := mkTable()
	for i := common.NRESERVED; i < common.NUMINODES; i++ {
		_, err := tbl.Alloc()
		require.NoError(t, err)
	}
	_, err := tbl.Alloc()
	assert.True(t, errors.Is(err, common.ErrOutOfInodes))
	assert.False(t, errors.Is(err, common.ErrOutOfSpace))
}

func TestBlockNo(t *testing.T) {
	assert := assert.New(t)
	fs, tbl := mkTable()
	ip, _ := tbl.Alloc()

	assert.Equal(common.NULLBNUM, tbl.BlockNo(ip, 0), "empty file")

	ip.Size = 10
	ip.Block = 6
	assert.Equal(common.Bnum(6), tbl.BlockNo(ip, 0), "one block is direct")
	assert.Equal(common.NULLBNUM, tbl.BlockNo(ip, 1))
	assert.False(ip.Indexed())

	ip.Size = common.MAXFILESZ
	ip.Block = 7
	tbl.SetIndexEntry(7, 0, 8)
	tbl.SetIndexEntry(7, 1, 9)
	tbl.SetIndexEntry(7, common.NINDIRECT-1, 10)
	assert.True(ip.Indexed())
	assert.Equal(common.Bnum(8), tbl.BlockNo(ip, 0))
	assert.Equal(common.Bnum(9), tbl.BlockNo(ip, 1))
	assert.Equal(common.Bnum(10), tbl.BlockNo(ip, common.MAXBLOCKS-1))
	assert.Equal(common.Bnum(9), tbl.IndexEntry(7, 1))
	assert.Equal(byte(9), fs.Disk.Block(7)[4], "entries are 4-byte block numbers")
	assert.Equal(common.NULLBNUM, tbl.BlockNo(ip, common.MAXBLOCKS))
	assert.Panics(func() { tbl.SetIndexEntry(7, common.NINDIRECT, 1) })

	ip.Size = common.MAXFILESZ + 1
	assert.Panics(func() { tbl.BlockNo(ip, 0) })
}

func TestCheck(t *testing.T) {
	assert := assert.New(t)
	assert.NoError((&Inode{}).Check())
	assert.NoError((&Inode{Size: 1, Block: 5}).Check())
	assert.NoError((&Inode{Size: common.MAXFILESZ, Block: 5}).Check())
	assert.Error((&Inode{Size: 1}).Check())
	assert.Error((&Inode{Block: 5}).Check())
	assert.Error((&Inode{Size: common.MAXFILESZ + 1, Block: 5}).Check())
}
