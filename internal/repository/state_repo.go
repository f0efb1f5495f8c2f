package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// StateRepository loads and saves the booking document as a whole.
type StateRepository interface {
	Load(ctx context.Context) (models.BookingDocument, error)
	Save(ctx context.Context, doc models.BookingDocument) error
}

func decodeDocument(raw []byte) (models.BookingDocument, error) {
	if len(raw) == 0 {
		return models.BookingDocument{}, nil
	}
	if err := ValidateDocument(raw); err != nil {
		return models.BookingDocument{}, err
	}

	var doc models.BookingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.BookingDocument{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func encodeDocument(doc models.BookingDocument) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}
