package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// DefaultSnapshotID names the single row that holds the document.
const DefaultSnapshotID = "primary"

type snapshotRepository struct {
	db *gorm.DB
	id string
}

// NewSnapshotRepository stores the booking document in one row of the snapshot table.
func NewSnapshotRepository(db *gorm.DB, id string) StateRepository {
	if id == "" {
		id = DefaultSnapshotID
	}
	return &snapshotRepository{db: db, id: id}
}

func (r *snapshotRepository) Load(ctx context.Context) (models.BookingDocument, error) {
	var snapshot models.StateSnapshot
	err := r.db.WithContext(ctx).First(&snapshot, "id = ?", r.id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.BookingDocument{}, nil
	}
	if err != nil {
		return models.BookingDocument{}, err
	}
	return decodeDocument(snapshot.Document)
}

func (r *snapshotRepository) Save(ctx context.Context, doc models.BookingDocument) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	snapshot := models.StateSnapshot{
		ID:        r.id,
		Document:  datatypes.JSON(raw),
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"document":   snapshot.Document,
			"updated_at": snapshot.UpdatedAt,
			"version":    gorm.Expr("bookit_state_snapshots.version + 1"),
		}),
	}).Create(&snapshot).Error
}
