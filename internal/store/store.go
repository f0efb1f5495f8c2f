package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/scheduling"
)

// StatusAll selects every reservation regardless of status.
const StatusAll models.ReservationStatus = "all"

// Persister is the persistence collaborator. Save replaces the whole document.
type Persister interface {
	Load(ctx context.Context) (models.BookingDocument, error)
	Save(ctx context.Context, doc models.BookingDocument) error
}

// Draft carries the caller supplied fields of a new reservation.
type Draft struct {
	RequesterID  string
	RoomID       string
	Date         string
	StartTime    string
	EndTime      string
	Purpose      string
	AdminCreated bool
	// CreatedBy is the administrator stamped as reviewer of an administrator-created
	// reservation. Defaults to the requester.
	CreatedBy string
}

// Store owns the booking document. Every mutation is staged on a copy, saved through
// the persister and only then committed, so a failed save leaves memory unchanged.
type Store struct {
	mu               sync.RWMutex
	doc              models.BookingDocument
	persister        Persister
	now              func() time.Time
	activityCapacity int
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActivityCapacity overrides how many activity records are retained.
func WithActivityCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.activityCapacity = capacity
		}
	}
}

// New builds a store around an already loaded document.
func New(doc models.BookingDocument, persister Persister, opts ...Option) *Store {
	s := &Store{
		doc:              doc.Clone(),
		persister:        persister,
		now:              time.Now,
		activityCapacity: DefaultActivityCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc.Activity = NewActivityLog(s.activityCapacity, s.doc.Activity).Entries()
	return s
}

// Open loads the document from the persister and builds a store around it.
func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("store: persister is required")
	}
	doc, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	return New(doc, persister, opts...), nil
}

// Now exposes the store clock so callers stamp records consistently.
func (s *Store) Now() time.Time {
	return s.now()
}

// Create validates the draft, checks availability for non-administrator submissions and
// stores the reservation as PENDING, or APPROVED when the draft is administrator-created.
func (s *Store) Create(ctx context.Context, draft Draft) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, window, vErr := s.normalizeDraft(draft)
	if vErr.HasErrors() {
		return models.Reservation{}, vErr
	}

	room, ok := findRoom(s.doc.Rooms, reservation.RoomID)
	if !ok {
		vErr.add("room_id", "unknown room")
		return models.Reservation{}, vErr
	}

	if !draft.AdminCreated {
		if !room.IsOperational() {
			return models.Reservation{}, &ConflictError{RoomID: room.ID, Date: reservation.Date, Window: window.String(), RoomClosed: true}
		}
		if existing, conflict := scheduling.FindConflict(room.ID, reservation.Date, window, s.doc.Reservations); conflict {
			return models.Reservation{}, &ConflictError{RoomID: room.ID, Date: reservation.Date, Window: window.String(), ReservationID: existing.ID}
		}
	}

	now := s.now()
	reservation.CreatedAt = now
	reservation.Status = scheduling.InitialStatus(draft.AdminCreated)
	reservation.AdminCreated = draft.AdminCreated
	if draft.AdminCreated {
		reviewer := strings.TrimSpace(draft.CreatedBy)
		if reviewer == "" {
			reviewer = reservation.RequesterID
		}
		reviewedAt := now
		reservation.ReviewedBy = &reviewer
		reservation.ReviewedAt = &reviewedAt
	}

	err := s.mutate(ctx, func(doc *models.BookingDocument) error {
		reservation.ID = nextReservationID(doc.Reservations, now)
		doc.Reservations = append(doc.Reservations, reservation)
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return reservation.Clone(), nil
}

// ListByStatus returns reservations with the status in insertion order. StatusAll or an
// empty status returns every reservation.
func (s *Store) ListByStatus(status models.ReservationStatus) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Reservation, 0)
	for _, reservation := range s.doc.Reservations {
		if status == "" || status == StatusAll || reservation.Status == status {
			out = append(out, reservation.Clone())
		}
	}
	return out
}

// Get returns the reservation with the id.
func (s *Store) Get(id int64) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOfReservation(s.doc.Reservations, id)
	if idx < 0 {
		return models.Reservation{}, false
	}
	return s.doc.Reservations[idx].Clone(), true
}

// Counts reports how many reservations hold each status.
func (s *Store) Counts() map[models.ReservationStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[models.ReservationStatus]int{
		models.ReservationPending:  0,
		models.ReservationApproved: 0,
		models.ReservationDenied:   0,
	}
	for _, reservation := range s.doc.Reservations {
		counts[reservation.Status]++
	}
	return counts
}

// Transition moves a PENDING reservation to APPROVED or DENIED and stamps the reviewer.
func (s *Store) Transition(ctx context.Context, id int64, status models.ReservationStatus, reviewer string) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfReservation(s.doc.Reservations, id)
	if idx < 0 {
		return models.Reservation{}, &NotFoundError{Entity: "reservation", ID: strconv.FormatInt(id, 10)}
	}

	current := s.doc.Reservations[idx]
	decision, err := scheduling.DecisionFor(status)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("status", "status must be APPROVED or DENIED")
		return models.Reservation{}, vErr
	}
	next, err := scheduling.Next(current.Status, decision)
	if err != nil {
		return models.Reservation{}, &InvalidTransitionError{ReservationID: id, From: current.Status, To: status}
	}

	var updated models.Reservation
	err = s.mutate(ctx, func(doc *models.BookingDocument) error {
		reviewedAt := s.now()
		reviewedBy := reviewer
		doc.Reservations[idx].Status = next
		doc.Reservations[idx].ReviewedBy = &reviewedBy
		doc.Reservations[idx].ReviewedAt = &reviewedAt
		updated = doc.Reservations[idx].Clone()
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return updated, nil
}

// BulkApprove approves every PENDING reservation with one reviewer and timestamp and
// returns how many moved.
func (s *Store) BulkApprove(ctx context.Context, reviewer string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := 0
	for _, reservation := range s.doc.Reservations {
		if reservation.Status == models.ReservationPending {
			pending++
		}
	}
	if pending == 0 {
		return 0, nil
	}

	err := s.mutate(ctx, func(doc *models.BookingDocument) error {
		reviewedAt := s.now()
		for i := range doc.Reservations {
			if doc.Reservations[i].Status != models.ReservationPending {
				continue
			}
			reviewedBy := reviewer
			stamp := reviewedAt
			doc.Reservations[i].Status = models.ReservationApproved
			doc.Reservations[i].ReviewedBy = &reviewedBy
			doc.Reservations[i].ReviewedAt = &stamp
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pending, nil
}

// Delete removes the reservation whatever its status. A missing id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	_, removed, err := s.Remove(ctx, id)
	return removed, err
}

// Remove deletes the reservation and returns the removed record.
func (s *Store) Remove(ctx context.Context, id int64) (models.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfReservation(s.doc.Reservations, id)
	if idx < 0 {
		return models.Reservation{}, false, nil
	}
	removed := s.doc.Reservations[idx].Clone()

	err := s.mutate(ctx, func(doc *models.BookingDocument) error {
		doc.Reservations = append(doc.Reservations[:idx], doc.Reservations[idx+1:]...)
		return nil
	})
	if err != nil {
		return models.Reservation{}, false, err
	}
	return removed, true, nil
}

// AppendActivity records an activity entry. Callers treat failures as best effort.
func (s *Store) AppendActivity(ctx context.Context, record models.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(doc *models.BookingDocument) error {
		log := NewActivityLog(s.activityCapacity, doc.Activity)
		log.Append(record)
		doc.Activity = log.Entries()
		return nil
	})
}

// RecentActivity returns up to n newest activity records.
func (s *Store) RecentActivity(n int) []models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return NewActivityLog(s.activityCapacity, s.doc.Activity).Recent(n)
}

// Rooms returns the inventory sorted by building then id.
func (s *Store) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]models.Room, len(s.doc.Rooms))
	for i, room := range s.doc.Rooms {
		rooms[i] = room.Clone()
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Building == rooms[j].Building {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Building < rooms[j].Building
	})
	return rooms
}

// Room returns the room with the id.
func (s *Store) Room(id string) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := findRoom(s.doc.Rooms, id)
	if !ok {
		return models.Room{}, false
	}
	return room.Clone(), true
}

// Availability answers whether the room is free for the window on the date.
func (s *Store) Availability(roomID, date, start, end string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := findRoom(s.doc.Rooms, strings.TrimSpace(roomID))
	if !ok {
		return false, &NotFoundError{Entity: "room", ID: roomID}
	}
	canonicalDate, window, vErr := parseSlot(date, start, end)
	if vErr.HasErrors() {
		return false, vErr
	}
	return scheduling.IsAvailable(room, canonicalDate, window, s.doc.Reservations), nil
}

// FreeWindows lists the unbooked gaps of the room on the date inside the opening hours.
func (s *Store) FreeWindows(roomID, date string, opening scheduling.Window) ([]scheduling.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := findRoom(s.doc.Rooms, strings.TrimSpace(roomID))
	if !ok {
		return nil, &NotFoundError{Entity: "room", ID: roomID}
	}
	canonicalDate, err := scheduling.ParseDate(date)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be YYYY-MM-DD")
		return nil, vErr
	}
	return scheduling.FreeWindows(room, canonicalDate, opening, s.doc.Reservations), nil
}

// UpdateRoom applies fn to a copy of the room and persists the result.
func (s *Store) UpdateRoom(ctx context.Context, id string, fn func(room *models.Room) error) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated models.Room
	err := s.mutate(ctx, func(doc *models.BookingDocument) error {
		for i := range doc.Rooms {
			if doc.Rooms[i].ID != id {
				continue
			}
			if err := fn(&doc.Rooms[i]); err != nil {
				return err
			}
			doc.Rooms[i].UpdatedAt = s.now()
			updated = doc.Rooms[i].Clone()
			return nil
		}
		return &NotFoundError{Entity: "room", ID: id}
	})
	if err != nil {
		return models.Room{}, err
	}
	return updated, nil
}

// SeedRooms adds rooms whose ids are not yet in the inventory and returns how many were added.
func (s *Store) SeedRooms(ctx context.Context, rooms []models.Room) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, exists := findRoom(s.doc.Rooms, room.ID); exists {
			continue
		}
		if _, dup := findRoom(added, room.ID); dup {
			continue
		}
		added = append(added, room.Clone())
	}
	if len(added) == 0 {
		return 0, nil
	}

	err := s.mutate(ctx, func(doc *models.BookingDocument) error {
		doc.Rooms = append(doc.Rooms, added...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(added), nil
}

// Snapshot returns a copy of the whole document.
func (s *Store) Snapshot() models.BookingDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Clone()
}

// mutate stages fn on a copy, saves it and commits. Callers hold s.mu.
func (s *Store) mutate(ctx context.Context, fn func(doc *models.BookingDocument) error) error {
	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			return fmt.Errorf("%w: save: %v", ErrPersistence, err)
		}
	}
	s.doc = next
	return nil
}

func (s *Store) normalizeDraft(draft Draft) (models.Reservation, scheduling.Window, *ValidationError) {
	vErr := &ValidationError{}

	requester := strings.TrimSpace(draft.RequesterID)
	if requester == "" {
		vErr.add("requester_id", "requester is required")
	}
	roomID := strings.TrimSpace(draft.RoomID)
	if roomID == "" {
		vErr.add("room_id", "room is required")
	}

	date, window, slotErr := parseSlot(draft.Date, draft.StartTime, draft.EndTime)
	for field, msg := range slotErr.FieldErrors {
		vErr.add(field, msg)
	}

	reservation := models.Reservation{
		RequesterID: requester,
		RoomID:      roomID,
		Date:        date,
		StartTime:   window.Start.String(),
		EndTime:     window.End.String(),
		Purpose:     strings.TrimSpace(draft.Purpose),
	}
	return reservation, window, vErr
}

func parseSlot(date, start, end string) (string, scheduling.Window, *ValidationError) {
	vErr := &ValidationError{}

	canonicalDate := ""
	if strings.TrimSpace(date) == "" {
		vErr.add("date", "date is required")
	} else if parsed, err := scheduling.ParseDate(date); err != nil {
		vErr.add("date", "date must be YYYY-MM-DD")
	} else {
		canonicalDate = parsed
	}

	var window scheduling.Window
	startOK, endOK := false, false
	if strings.TrimSpace(start) == "" {
		vErr.add("start_time", "start time is required")
	} else if clock, err := scheduling.ParseClock(start); err != nil {
		vErr.add("start_time", "start time must be HH:MM")
	} else {
		window.Start, startOK = clock, true
	}
	if strings.TrimSpace(end) == "" {
		vErr.add("end_time", "end time is required")
	} else if clock, err := scheduling.ParseEndClock(end); err != nil {
		vErr.add("end_time", "end time must be HH:MM")
	} else {
		window.End, endOK = clock, true
	}
	if startOK && endOK && window.Empty() {
		vErr.add("end_time", "end time must be after start time")
	}

	return canonicalDate, window, vErr
}

func nextReservationID(existing []models.Reservation, now time.Time) int64 {
	id := now.UnixMilli()
	for _, reservation := range existing {
		if reservation.ID >= id {
			id = reservation.ID + 1
		}
	}
	return id
}

func indexOfReservation(reservations []models.Reservation, id int64) int {
	for i, reservation := range reservations {
		if reservation.ID == id {
			return i
		}
	}
	return -1
}

func findRoom(rooms []models.Room, id string) (models.Room, bool) {
	for _, room := range rooms {
		if room.ID == id {
			return room, true
		}
	}
	return models.Room{}, false
}
