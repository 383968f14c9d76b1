package storage

import "errors"

// ErrNotFound is returned by Retrieve when the object does not exist
var ErrNotFound = errors.New("object not found")

// StorageInterface defines the contract for storage operations
type StorageInterface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
}
