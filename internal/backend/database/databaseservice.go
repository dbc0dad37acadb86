package database

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned by Load when the backing store holds no document yet
var ErrDocumentNotFound = errors.New("document not found")

// DocumentService stores a single JSON document. Save replaces the whole
// document; there are no partial updates and no version checks.
type DocumentService interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, document []byte) error
	Close() error
}
