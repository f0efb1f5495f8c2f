package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/events"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/store"
)

var (
	adminActor    = Actor{ID: "admin-1", Name: "Ada Admin", Role: models.RoleAdmin}
	studentActor  = Actor{ID: "student-1", Name: "Sam Student", Role: models.RoleStudent}
	facultyActor  = Actor{ID: "faculty-1", Name: "Femi Faculty", Role: models.RoleFaculty}
	facilityActor = Actor{ID: "facility-1", Name: "Fola Facility", Role: models.RoleFacility}
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC)}
	doc := models.BookingDocument{Rooms: store.DefaultRooms(clock.now)}
	return store.New(doc, nil, store.WithClock(clock.Now))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []models.ActivityAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ActivityAction, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Action)
	}
	return out
}

type failingRecorder struct {
	calls int
}

func (f *failingRecorder) Record(context.Context, ActivityEntry) (dto.ActivityResponse, error) {
	f.calls++
	return dto.ActivityResponse{}, errors.New("activity storage offline")
}

func requireStatus(t *testing.T, st *store.Store, id int64, status models.ReservationStatus) {
	t.Helper()
	reservation, ok := st.Get(id)
	require.True(t, ok)
	require.Equal(t, status, reservation.Status)
}
