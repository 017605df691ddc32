package nufs

import (
	"fmt"

	"github.com/mit-pdos/nufs/common"
	"github.com/mit-pdos/nufs/util"
)

// Create makes an empty file at path and returns its inode number.
func (nfs *Nufs) Create(path string) (common.Inum, error) {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()

	util.DPrintf(1, "Create %s\n", path)
	if path == "/" {
		return common.NULLINUM, fmt.Errorf("create /: %w", common.ErrAlreadyExists)
	}
	name, err := resolve(path)
	if err != nil {
		return common.NULLINUM, err
	}
	if err := nfs.dir.ValidName(name); err != nil {
		return common.NULLINUM, err
	}
	if _, err := nfs.dir.Lookup(name); err == nil {
		return common.NULLINUM, fmt.Errorf("create %s: %w", name, common.ErrAlreadyExists)
	}
	ip, err := nfs.itab.Alloc()
	if err != nil {
		return common.NULLINUM, err
	}
	if err := nfs.dir.Insert(name, ip.Inum); err != nil {
		nfs.itab.Free(ip)
		return common.NULLINUM, err
	}
	nfs.touch(ip.Inum)
	return ip.Inum, nil
}

// Lookup returns the inode number of the file at path.
func (nfs *Nufs) Lookup(path string) (common.Inum, error) {
	nfs.mu.RLock()
	defer nfs.mu.RUnlock()
	return nfs.lookup(path)
}

// remove releases every block of the file, then its inode, then its name.
func (nfs *Nufs) remove(name string, inum common.Inum) error {
	ip, err := nfs.getInode(inum)
	if err != nil {
		return err
	}
	nfs.shrink(ip, 0)
	nfs.itab.Put(ip)
	nfs.itab.Free(ip)
	if err := nfs.dir.Remove(name); err != nil {
		return err
	}
	delete(nfs.times, inum)
	return nil
}

// Delete removes the file at path and releases everything it owned.
func (nfs *Nufs) Delete(path string) error {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()

	util.DPrintf(1, "Delete %s\n", path)
	inum, err := nfs.lookup(path)
	if err != nil {
		return err
	}
	return nfs.remove(path, inum)
}

// Rename moves the file at from to the name to. A file already at to is
// deleted first.
func (nfs *Nufs) Rename(from string, to string) error {
	return nfs.rename(from, to, true)
}

// RenameNoReplace is Rename that fails with ErrAlreadyExists instead of
// replacing an existing file.
func (nfs *Nufs) RenameNoReplace(from string, to string) error {
	return nfs.rename(from, to, false)
}

func (nfs *Nufs) rename(from string, to string, replace bool) error {
	nfs.mu.Lock()
	defer nfs.mu.Unlock()

	util.DPrintf(1, "Rename %s -> %s (replace %v)\n", from, to, replace)
	inum, err := nfs.lookup(from)
	if err != nil {
		return err
	}
	toName, err := resolve(to)
	if err != nil {
		return err
	}
	if err := nfs.dir.ValidName(toName); err != nil {
		return err
	}
	victim, err := nfs.dir.Lookup(toName)
	exists := err == nil
	if exists && !replace {
		return fmt.Errorf("rename to %s: %w", toName, common.ErrAlreadyExists)
	}
	if from == toName {
		return nil
	}
	if exists {
		if err := nfs.remove(toName, victim); err != nil {
			return err
		}
	}
	if err := nfs.dir.Remove(from); err != nil {
		return err
	}
	return nfs.dir.Insert(toName, inum)
}
