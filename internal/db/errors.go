package db

import "fmt"

// StorageError reports a failure to create, open or initialize the store.
type StorageError struct {
	Err  error
	Path string
	Op   string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(path, op string, err error) *StorageError {
	return &StorageError{Path: path, Op: "failed to " + op, Err: err}
}
