package disk

import (
	"fmt"

	"github.com/ryogrid/SamehadaCore/errors"
)

const (
	ErrStorageFailure = errors.Error("storage failure")
	ErrFileLocked     = errors.Error("table file is used by another process")
)

// StorageError describes a failed page read or write. errors.Is(err, ErrStorageFailure)
// is true for every StorageError.
type StorageError struct {
	Op     string
	File   string
	PageNo int32
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s page %d: %v", e.Op, e.File, e.PageNo, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

func newStorageError(op string, file string, pageNo int32, err error) error {
	return &StorageError{op, file, pageNo, err}
}
