package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/store"
)

type brokenPersister struct{}

func (brokenPersister) Load(context.Context) (models.BookingDocument, error) {
	return models.BookingDocument{}, nil
}

func (brokenPersister) Save(context.Context, models.BookingDocument) error {
	return errors.New("disk full")
}

func TestActivityServiceRecordAndRecent(t *testing.T) {
	st := newTestStore(t)
	svc := NewActivityService(st, 0, testLogger())

	id := int64(42)
	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:       adminActor.ID,
		Action:        models.ActivityApproved,
		Description:   "  approved reservation #42  ",
		ReservationID: &id,
	})
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.Equal(t, "approved reservation #42", entry.Description)
	require.Equal(t, "approved", entry.Action)
	require.Equal(t, int64(42), *entry.ReservationID)

	for i := 0; i < 7; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{
			ActorID:     adminActor.ID,
			Action:      models.ActivityCreated,
			Description: fmt.Sprintf("entry %d", i),
		})
		require.NoError(t, err)
	}

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent.Items, store.DefaultRecentActivity)
	require.Equal(t, "entry 6", recent.Items[0].Description)

	all, err := svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, all.Items, 8)
	require.Equal(t, "approved reservation #42", all.Items[7].Description)
}

func TestActivityServiceRejectsIncompleteEntries(t *testing.T) {
	svc := NewActivityService(newTestStore(t), 5, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{ActorID: adminActor.ID})
	require.Error(t, err)

	_, err = svc.Record(context.Background(), ActivityEntry{Action: models.ActivityDeleted})
	require.Error(t, err)
}

func TestActivityServiceSurfacesPersistenceFailure(t *testing.T) {
	st := store.New(models.BookingDocument{}, brokenPersister{})
	svc := NewActivityService(st, 5, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{ActorID: adminActor.ID, Action: models.ActivityDeleted})
	require.ErrorIs(t, err, store.ErrPersistence)

	recent, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, recent.Items)
}
