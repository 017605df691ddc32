package bridge

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/mit-pdos/nufs/nufs"
)

type MountOptions struct {
	Debug      bool
	AllowOther bool
}

// Mount serves nfs at mountpoint. The caller waits on and unmounts the
// returned server.
func Mount(nfs *nufs.Nufs, mountpoint string, opts MountOptions) (*fuse.Server, error) {
	timeout := time.Second
	return fs.Mount(mountpoint, NewRoot(nfs), &fs.Options{
		MountOptions: fuse.MountOptions{
			Debug:      opts.Debug,
			AllowOther: opts.AllowOther,
			FsName:     "nufs",
			Name:       "nufs",
		},
		EntryTimeout: &timeout,
		AttrTimeout:  &timeout,
	})
}
