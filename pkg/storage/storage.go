// Package storage provides blob storage for rendered report files.
// The only shipped backend writes to the local filesystem; the interface
// keeps the pipeline independent from the backing store.
package storage

import (
	"context"
	"errors"
	"io"

	"assethub/pkg/config"
)

// Standard errors returned by storage operations.
var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that escape the storage root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectInfo описывает сохранённый объект
type ObjectInfo struct {
	Key       string
	SizeBytes int64
}

// Store is the interface for report file blob storage.
type Store interface {
	// Put writes the object under the given key, replacing any previous
	// content. Returns the stored size in bytes.
	Put(ctx context.Context, key string, data []byte) (*ObjectInfo, error)
	// Open returns a reader over the object's content.
	// Returns ErrNotFound if the object does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Stat returns object metadata without reading the content.
	// Returns ErrNotFound if the object does not exist.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	// Exists checks whether the object is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// New создаёт хранилище на основе конфигурации
func New(cfg *config.StorageConfig) (Store, error) {
	basePath := "data/reports"
	if cfg != nil && cfg.BasePath != "" {
		basePath = cfg.BasePath
	}
	return NewLocalStore(basePath)
}
