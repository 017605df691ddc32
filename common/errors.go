package common

import "errors"

// Error is a kind of failure reported by the storage engine. Operations wrap
// one of the constants below; use errors.Is or Kind to classify.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNotFound      Error = "not found"
	ErrAlreadyExists Error = "already exists"
	ErrOutOfSpace    Error = "out of space"
	ErrOutOfInodes   Error = "out of inodes"
	ErrNameTooLong   Error = "name too long"
	ErrFileTooLarge  Error = "file too large"
	ErrIo            Error = "i/o error"
)

var kinds = []Error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrOutOfSpace,
	ErrOutOfInodes,
	ErrNameTooLong,
	ErrFileTooLarge,
	ErrIo,
}

// Kind returns the error kind wrapped by err, or "" if err is nil or carries
// no kind.
func Kind(err error) Error {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ""
}
