package database

import (
	"context"
	"sync"
)

// MemoryDatabase holds the document in process memory. The mutex only
// protects the byte slice; read-modify-write sequences still race.
type MemoryDatabase struct {
	mu       sync.Mutex
	document []byte
	present  bool
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{}
}

func (m *MemoryDatabase) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.present {
		return nil, ErrDocumentNotFound
	}
	return append([]byte(nil), m.document...), nil
}

func (m *MemoryDatabase) Save(ctx context.Context, document []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.document = append([]byte(nil), document...)
	m.present = true
	return nil
}

func (m *MemoryDatabase) Close() error {
	return nil
}
