package apperr

import (
	"errors"
	"io/fs"
	"syscall"
)

// osMessage extracts the bare OS error string ("permission denied") from
// path and syscall errors.
func osMessage(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}
