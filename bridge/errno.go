package bridge

import (
	"syscall"

	"github.com/mit-pdos/nufs/common"
)

// ToErrno maps a filesystem error to the errno the kernel sees.
func ToErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	switch common.Kind(err) {
	case common.ErrNotFound:
		return syscall.ENOENT
	case common.ErrAlreadyExists:
		return syscall.EEXIST
	case common.ErrOutOfSpace, common.ErrOutOfInodes:
		return syscall.ENOSPC
	case common.ErrNameTooLong:
		return syscall.ENAMETOOLONG
	case common.ErrFileTooLarge:
		return syscall.EFBIG
	default:
		return syscall.EIO
	}
}
