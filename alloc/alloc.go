package alloc

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/util"
)

// Alloc uses a bit map to allocate and free numbers. Bit n lives in byte n/8
// at position n%8, least significant first; a set bit means in use.
//
// The bitmap is a view into the image, so every change is a change to the
// disk. Alloc does no locking: callers serialize mutations.
type Alloc struct {
	bitmap   []byte
	nbit     uint64
	reserved uint64 // numbers below this are permanently used
}

func MkAlloc(bitmap []byte, nbit uint64) *Alloc {
	if util.RoundUp(nbit, 8) > uint64(len(bitmap)) {
		panic("MkAlloc: bitmap too small")
	}
	a := &Alloc{
		bitmap:   bitmap,
		nbit:     nbit,
		reserved: 0,
	}
	return a
}

func (a *Alloc) checkRange(n uint64) {
	if n >= a.nbit {
		panic(fmt.Errorf("bit %d out of range [0, %d)", n, a.nbit))
	}
}

// Get reads bit n.
func (a *Alloc) Get(n uint64) bool {
	a.checkRange(n)
	return a.bitmap[n/8]&(1<<(n%8)) != 0
}

// Set writes bit n.
func (a *Alloc) Set(n uint64, v bool) {
	a.checkRange(n)
	if v {
		a.bitmap[n/8] = a.bitmap[n/8] | (1 << (n % 8))
	} else {
		a.bitmap[n/8] = a.bitmap[n/8] & ^(1 << (n % 8))
	}
}

// Reserve marks [0, n) used and protects those numbers from FreeNum.
func (a *Alloc) Reserve(n uint64) {
	for i := uint64(0); i < n; i++ {
		a.Set(i, true)
	}
	if n > a.reserved {
		a.reserved = n
	}
}

func (a *Alloc) MarkUsed(n uint64) {
	a.Set(n, true)
}

// AllocNum sets and returns the lowest clear bit in [start, end).
func (a *Alloc) AllocNum(start uint64, end uint64) (uint64, error) {
	if end > a.nbit {
		end = a.nbit
	}
	if start < a.reserved {
		start = a.reserved
	}
	for num := start; num < end; num++ {
		if a.bitmap[num/8] == 0xFF {
			num = num | 7 // skip the rest of a full byte
			continue
		}
		if !a.Get(num) {
			a.Set(num, true)
			util.DPrintf(5, "AllocNum [%d, %d) -> %d\n", start, end, num)
			return num, nil
		}
	}
	return 0, fmt.Errorf("no free bit in [%d, %d): %w", start, end, common.ErrOutOfSpace)
}

// FreeNum clears bit num. Freeing a free number does nothing; freeing a
// reserved number is a bug.
func (a *Alloc) FreeNum(num uint64) {
	if num < a.reserved {
		panic(fmt.Errorf("FreeNum: %d is reserved", num))
	}
	util.DPrintf(5, "FreeNum %d\n", num)
	a.Set(num, false)
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree counts clear bits.
func (a *Alloc) NumFree() uint64 {
	var used uint64
	for n := uint64(0); n < a.nbit/8; n++ {
		used += popCnt(a.bitmap[n])
	}
	for n := a.nbit / 8 * 8; n < a.nbit; n++ {
		if a.Get(n) {
			used++
		}
	}
	return a.nbit - used
}

// String prints the bitmap as 0s and 1s, eight to a group and 64 to a line.
func (a *Alloc) String() string {
	var sb strings.Builder
	for i := uint64(0); i < a.nbit; i++ {
		if a.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
		if (i+1)%64 == 0 {
			sb.WriteByte('\n')
		} else if (i+1)%8 == 0 {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
