package repository

import (
	"context"
	"sync"

	"github.com/pau-bookit/bookit-api/internal/models"
)

type memoryStateRepository struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemoryStateRepository keeps the encoded document in process memory.
func NewMemoryStateRepository() StateRepository {
	return &memoryStateRepository{}
}

func (r *memoryStateRepository) Load(context.Context) (models.BookingDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return decodeDocument(r.raw)
}

func (r *memoryStateRepository) Save(_ context.Context, doc models.BookingDocument) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.raw = raw
	r.mu.Unlock()
	return nil
}
