package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/nufs/addr"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/disk"
)

func TestBufAliasesBlock(t *testing.T) {
	d := disk.NewMemDisk(4)
	b := MkBufLoad(addr.MkAddr(2, 64), 12, d.Block(2))
	assert.Equal(t, 12, len(b.Data))
	b.Data[0] = 0xAB
	assert.Equal(t, byte(0xAB), d.Block(2)[64])
	assert.False(t, b.IsZero())
	b.Zero()
	assert.True(t, b.IsZero())
	assert.Equal(t, byte(0), d.Block(2)[64])
}

func TestBufCrossingPanics(t *testing.T) {
	d := disk.NewMemDisk(1)
	assert.Panics(t, func() {
		MkBufLoad(addr.MkAddr(0, common.BlockSize-4), 8, d.Block(0))
	})
}

func TestBnumRoundTrip(t *testing.T) {
	assert := assert.New(t)
	d := disk.NewMemDisk(8)
	b := MkBlockBuf(d, 7)
	b.BnumPut(0, 5)
	b.BnumPut(1, 255)
	b.BnumPut(common.NINDIRECT-1, 0x01020304)
	assert.Equal(common.Bnum(5), b.BnumGet(0))
	assert.Equal(common.Bnum(255), b.BnumGet(1))
	assert.Equal(common.Bnum(0x01020304), b.BnumGet(common.NINDIRECT-1))
	assert.Equal(common.Bnum(0), b.BnumGet(2))

	// little endian, as the C layout
	blk := d.Block(7)
	assert.Equal([]byte{5, 0, 0, 0, 255, 0, 0, 0}, []byte(blk[:8]))
	assert.Equal([]byte{4, 3, 2, 1}, []byte(blk[common.BlockSize-4:]))
}
