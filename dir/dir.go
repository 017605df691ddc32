// Package dir is the flat name index of the filesystem.
package dir

import (
	"bytes"
	"fmt"

	"github.com/mit-pdos/nufs/buf"
	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/super"
	"github.com/mit-pdos/nufs/util"
)

type Entry struct {
	Name string
	Inum common.Inum
}

// Directory maps names to inode numbers. Names are unique.
type Directory interface {
	Lookup(name string) (common.Inum, error)
	Insert(name string, inum common.Inum) error
	Remove(name string) error
	Entries() []Entry
	ValidName(name string) error
}

// SlotDir keeps one NUL-padded name slot per inode number: the entry for
// inode i lives in slot i. An empty slot starts with NUL.
type SlotDir struct {
	fs *super.FsSuper
}

var _ Directory = (*SlotDir)(nil)

func MkSlotDir(fs *super.FsSuper) *SlotDir {
	return &SlotDir{fs: fs}
}

func (d *SlotDir) slot(dnum uint64) *buf.Buf {
	a := d.fs.Dnum2Addr(dnum)
	return buf.MkBufLoad(a, common.DIRENTSZ, d.fs.Disk.Block(a.Blkno))
}

func slotName(b *buf.Buf) string {
	n := bytes.IndexByte(b.Data, 0)
	if n < 0 {
		n = len(b.Data)
	}
	return string(b.Data[:n])
}

func (d *SlotDir) ValidName(name string) error {
	if name == "" || bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("name %q: %w", name, common.ErrNotFound)
	}
	if uint64(len(name)) > common.MAXNAMELEN {
		return fmt.Errorf("name of %d bytes: %w", len(name), common.ErrNameTooLong)
	}
	return nil
}

func (d *SlotDir) find(name string) (uint64, bool) {
	for dnum := uint64(0); dnum < d.fs.NInode; dnum++ {
		b := d.slot(dnum)
		if b.Data[0] != 0 && slotName(b) == name {
			return dnum, true
		}
	}
	return 0, false
}

// Lookup finds name. A name that could never be stored is simply not found.
func (d *SlotDir) Lookup(name string) (common.Inum, error) {
	dnum, ok := d.find(name)
	if !ok {
		return common.NULLINUM, fmt.Errorf("lookup %s: %w", name, common.ErrNotFound)
	}
	return common.Inum(dnum), nil
}

// Insert binds name to inum. The slot of inum must be empty.
func (d *SlotDir) Insert(name string, inum common.Inum) error {
	if err := d.ValidName(name); err != nil {
		return err
	}
	if _, ok := d.find(name); ok {
		return fmt.Errorf("insert %s: %w", name, common.ErrAlreadyExists)
	}
	if uint64(inum) >= d.fs.NInode {
		panic(fmt.Errorf("Insert: inode %d has no slot", inum))
	}
	b := d.slot(uint64(inum))
	if !b.IsZero() {
		panic(fmt.Errorf("Insert: slot %d holds %q", inum, slotName(b)))
	}
	copy(b.Data, name)
	util.DPrintf(5, "dir insert %s -> %d\n", name, inum)
	return nil
}

// Remove clears the slot holding name.
func (d *SlotDir) Remove(name string) error {
	dnum, ok := d.find(name)
	if !ok {
		return fmt.Errorf("remove %s: %w", name, common.ErrNotFound)
	}
	d.slot(dnum).Zero()
	util.DPrintf(5, "dir remove %s (%d)\n", name, dnum)
	return nil
}

// Entries lists occupied slots in slot order.
func (d *SlotDir) Entries() []Entry {
	var ents []Entry
	for dnum := uint64(0); dnum < d.fs.NInode; dnum++ {
		b := d.slot(dnum)
		if b.Data[0] != 0 {
			ents = append(ents, Entry{Name: slotName(b), Inum: common.Inum(dnum)})
		}
	}
	return ents
}
