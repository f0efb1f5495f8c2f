package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/events"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/observability"
	"github.com/pau-bookit/bookit-api/internal/scheduling"
	"github.com/pau-bookit/bookit-api/internal/store"
)

// ReservationService exposes the reservation workflow to transport layers.
type ReservationService interface {
	Submit(ctx context.Context, actor Actor, payload dto.ReservationCreateRequest) (dto.ReservationResponse, error)
	AdminCreate(ctx context.Context, actor Actor, payload dto.AdminReservationCreateRequest) (dto.ReservationResponse, error)
	Review(ctx context.Context, actor Actor, id int64, payload dto.ReservationReviewRequest) (dto.ReservationResponse, error)
	BulkApprove(ctx context.Context, actor Actor) (dto.BulkApproveResponse, error)
	Delete(ctx context.Context, actor Actor, id int64) (dto.DeleteReservationResponse, error)
	List(ctx context.Context, req dto.ReservationListRequest) (dto.ReservationListResponse, error)
	ListMine(ctx context.Context, actor Actor) (dto.ReservationListResponse, error)
	Get(ctx context.Context, actor Actor, id int64) (dto.ReservationResponse, error)
	Availability(ctx context.Context, roomID, date, start, end string) (dto.AvailabilityResponse, error)
	Dashboard(ctx context.Context) (dto.AdminDashboardResponse, error)
}

// ReservationServiceConfig carries the optional collaborators of the reservation service.
type ReservationServiceConfig struct {
	Activity  ActivityRecorder
	Publisher events.Publisher
	Board     *RoomBoard
	Opening   scheduling.Window
	// RecentActivity is how many activity records the dashboard shows.
	RecentActivity int
}

type reservationService struct {
	store     *store.Store
	validator *validator.Validate
	activity  ActivityRecorder
	publisher events.Publisher
	board     *RoomBoard
	opening   scheduling.Window
	recent    int
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewReservationService constructs the reservation workflow service.
func NewReservationService(st *store.Store, validate *validator.Validate, cfg ReservationServiceConfig, logger zerolog.Logger) ReservationService {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop()
	}
	opening := cfg.Opening
	if opening.Empty() {
		opening = scheduling.Window{Start: 7 * 60, End: 21 * 60}
	}
	recent := cfg.RecentActivity
	if recent <= 0 {
		recent = store.DefaultRecentActivity
	}

	return &reservationService{
		store:     st,
		validator: validate,
		activity:  cfg.Activity,
		publisher: publisher,
		board:     cfg.Board,
		opening:   opening,
		recent:    recent,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/pau-bookit/bookit-api/internal/service/reservation"),
		logger:    logger.With().Str("component", "reservation_service").Logger(),
	}
}

func (s *reservationService) Submit(ctx context.Context, actor Actor, payload dto.ReservationCreateRequest) (dto.ReservationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.submit")
	span.SetAttributes(
		attribute.String("reservation.room_id", payload.RoomID),
		attribute.String("reservation.requester_id", actor.ID),
	)
	defer span.End()

	if !actor.CanRequest() {
		s.fail(span, "submit", ErrForbidden)
		return dto.ReservationResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		s.fail(span, "submit", err)
		return dto.ReservationResponse{}, err
	}

	reservation, err := s.store.Create(ctx, store.Draft{
		RequesterID: actor.ID,
		RoomID:      payload.RoomID,
		Date:        payload.Date,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
		Purpose:     s.clean(payload.Purpose),
	})
	if err != nil {
		s.fail(span, "submit", err)
		return dto.ReservationResponse{}, err
	}

	span.SetAttributes(attribute.Int64("reservation.id", reservation.ID))
	s.succeed("submit")
	s.afterMutation(ctx, actor, models.ActivityCreated, &reservation,
		fmt.Sprintf("%s requested %s", actor.label(), describeReservation(reservation)))

	return s.toResponse(reservation), nil
}

func (s *reservationService) AdminCreate(ctx context.Context, actor Actor, payload dto.AdminReservationCreateRequest) (dto.ReservationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.admin_create")
	span.SetAttributes(attribute.String("reservation.room_id", payload.RoomID))
	defer span.End()

	if !actor.IsAdmin() {
		s.fail(span, "admin_create", ErrForbidden)
		return dto.ReservationResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		s.fail(span, "admin_create", err)
		return dto.ReservationResponse{}, err
	}

	requester := strings.TrimSpace(payload.RequesterID)
	if requester == "" {
		requester = actor.ID
	}

	reservation, err := s.store.Create(ctx, store.Draft{
		RequesterID:  requester,
		RoomID:       payload.RoomID,
		Date:         payload.Date,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		Purpose:      s.clean(payload.Purpose),
		AdminCreated: true,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		s.fail(span, "admin_create", err)
		return dto.ReservationResponse{}, err
	}

	span.SetAttributes(attribute.Int64("reservation.id", reservation.ID))
	s.succeed("admin_create")
	s.afterMutation(ctx, actor, models.ActivityCreated, &reservation,
		fmt.Sprintf("%s booked %s directly", actor.label(), describeReservation(reservation)))

	return s.toResponse(reservation), nil
}

func (s *reservationService) Review(ctx context.Context, actor Actor, id int64, payload dto.ReservationReviewRequest) (dto.ReservationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.review")
	span.SetAttributes(
		attribute.Int64("reservation.id", id),
		attribute.String("reservation.reviewer_id", actor.ID),
	)
	defer span.End()

	if !actor.IsAdmin() {
		s.fail(span, "review", ErrForbidden)
		return dto.ReservationResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		s.fail(span, "review", err)
		return dto.ReservationResponse{}, err
	}
	decision, err := scheduling.ParseDecision(payload.Decision)
	if err != nil {
		vErr := store.NewValidationError("decision", "decision must be approve or deny")
		s.fail(span, "review", vErr)
		return dto.ReservationResponse{}, vErr
	}

	reservation, err := s.store.Transition(ctx, id, decision.Target(), actor.ID)
	if err != nil {
		s.fail(span, "review", err)
		return dto.ReservationResponse{}, err
	}

	action := models.ActivityApproved
	verb := "approved"
	if reservation.Status == models.ReservationDenied {
		action = models.ActivityDenied
		verb = "denied"
	}
	span.SetAttributes(attribute.String("reservation.status", string(reservation.Status)))
	s.succeed("review")
	s.afterMutation(ctx, actor, action, &reservation,
		fmt.Sprintf("%s %s %s", actor.label(), verb, describeReservation(reservation)))

	return s.toResponse(reservation), nil
}

func (s *reservationService) BulkApprove(ctx context.Context, actor Actor) (dto.BulkApproveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.bulk_approve")
	span.SetAttributes(attribute.String("reservation.reviewer_id", actor.ID))
	defer span.End()

	if !actor.IsAdmin() {
		s.fail(span, "bulk_approve", ErrForbidden)
		return dto.BulkApproveResponse{}, ErrForbidden
	}

	approved, err := s.store.BulkApprove(ctx, actor.ID)
	if err != nil {
		s.fail(span, "bulk_approve", err)
		return dto.BulkApproveResponse{}, err
	}

	span.SetAttributes(attribute.Int("reservation.approved", approved))
	s.succeed("bulk_approve")
	if approved > 0 {
		s.record(ctx, ActivityEntry{
			ActorID:     actor.ID,
			Action:      models.ActivityBulkApproved,
			Description: fmt.Sprintf("%s approved %d pending reservation(s)", actor.label(), approved),
		})
		s.publish(ctx, events.ReservationEvent{
			Action:     models.ActivityBulkApproved,
			ActorID:    actor.ID,
			Count:      approved,
			OccurredAt: s.store.Now(),
		})
		s.board.Publish(dto.BoardEvent{Type: BoardReservationsCleared, OccurredAt: s.store.Now()})
		s.refreshQueueGauge()
	}

	return dto.BulkApproveResponse{Approved: approved}, nil
}

func (s *reservationService) Delete(ctx context.Context, actor Actor, id int64) (dto.DeleteReservationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.delete")
	span.SetAttributes(attribute.Int64("reservation.id", id))
	defer span.End()

	if !actor.IsAdmin() {
		s.fail(span, "delete", ErrForbidden)
		return dto.DeleteReservationResponse{}, ErrForbidden
	}

	removed, ok, err := s.store.Remove(ctx, id)
	if err != nil {
		s.fail(span, "delete", err)
		return dto.DeleteReservationResponse{}, err
	}
	if !ok {
		span.SetAttributes(attribute.Bool("reservation.missing", true))
		s.succeed("delete")
		return dto.DeleteReservationResponse{ID: id, Deleted: false}, nil
	}

	s.succeed("delete")
	s.afterMutation(ctx, actor, models.ActivityDeleted, &removed,
		fmt.Sprintf("%s deleted %s", actor.label(), describeReservation(removed)))

	return dto.DeleteReservationResponse{ID: id, Deleted: true}, nil
}

func (s *reservationService) List(_ context.Context, req dto.ReservationListRequest) (dto.ReservationListResponse, error) {
	status := store.StatusAll
	if raw := strings.TrimSpace(req.Status); raw != "" && !strings.EqualFold(raw, string(store.StatusAll)) {
		parsed, err := scheduling.ParseStatus(raw)
		if err != nil {
			return dto.ReservationListResponse{}, store.NewValidationError("status", "status must be PENDING, APPROVED, DENIED or all")
		}
		status = parsed
	}

	date := strings.TrimSpace(req.Date)
	if date != "" {
		canonical, err := scheduling.ParseDate(date)
		if err != nil {
			return dto.ReservationListResponse{}, store.NewValidationError("date", "date must be YYYY-MM-DD")
		}
		date = canonical
	}
	roomID := strings.TrimSpace(req.RoomID)

	reservations := s.store.ListByStatus(status)
	filtered := make([]models.Reservation, 0, len(reservations))
	for _, reservation := range reservations {
		if date != "" && reservation.Date != date {
			continue
		}
		if roomID != "" && !strings.EqualFold(reservation.RoomID, roomID) {
			continue
		}
		filtered = append(filtered, reservation)
	}

	return s.listResponse(filtered), nil
}

func (s *reservationService) ListMine(_ context.Context, actor Actor) (dto.ReservationListResponse, error) {
	reservations := s.store.ListByStatus(store.StatusAll)
	mine := make([]models.Reservation, 0)
	for _, reservation := range reservations {
		if reservation.RequesterID == actor.ID {
			mine = append(mine, reservation)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	return s.listResponse(mine), nil
}

func (s *reservationService) Get(_ context.Context, actor Actor, id int64) (dto.ReservationResponse, error) {
	reservation, ok := s.store.Get(id)
	if !ok {
		return dto.ReservationResponse{}, &store.NotFoundError{Entity: "reservation", ID: fmt.Sprintf("%d", id)}
	}
	if !actor.IsAdmin() && reservation.RequesterID != actor.ID {
		return dto.ReservationResponse{}, ErrForbidden
	}
	return s.toResponse(reservation), nil
}

func (s *reservationService) Availability(ctx context.Context, roomID, date, start, end string) (dto.AvailabilityResponse, error) {
	_, span := s.tracer.Start(ctx, "reservations.availability")
	span.SetAttributes(
		attribute.String("reservation.room_id", roomID),
		attribute.String("reservation.date", date),
	)
	defer span.End()

	windows, err := s.store.FreeWindows(roomID, date, s.opening)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, store.ErrorKind(err))
		return dto.AvailabilityResponse{}, err
	}

	canonicalDate, _ := scheduling.ParseDate(date)
	response := dto.AvailabilityResponse{
		RoomID:      strings.TrimSpace(roomID),
		Date:        canonicalDate,
		FreeWindows: make([]dto.TimeWindow, 0, len(windows)),
	}
	for _, window := range windows {
		response.FreeWindows = append(response.FreeWindows, dto.TimeWindow{Start: window.Start.String(), End: window.End.String()})
	}

	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return response, nil
	}

	available, err := s.store.Availability(roomID, date, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, store.ErrorKind(err))
		return dto.AvailabilityResponse{}, err
	}
	response.StartTime = strings.TrimSpace(start)
	response.EndTime = strings.TrimSpace(end)
	response.Available = &available
	span.SetAttributes(attribute.Bool("reservation.available", available))

	return response, nil
}

func (s *reservationService) Dashboard(ctx context.Context) (dto.AdminDashboardResponse, error) {
	counts := s.store.Counts()
	response := dto.AdminDashboardResponse{
		Counts:         countsResponse(counts),
		RecentActivity: make([]dto.ActivityResponse, 0),
	}
	for _, record := range s.store.RecentActivity(s.recent) {
		response.RecentActivity = append(response.RecentActivity, dto.NewActivityResponse(record))
	}
	return response, nil
}

func (s *reservationService) afterMutation(ctx context.Context, actor Actor, action models.ActivityAction, reservation *models.Reservation, description string) {
	id := reservation.ID
	s.record(ctx, ActivityEntry{
		ActorID:       actor.ID,
		Action:        action,
		Description:   description,
		ReservationID: &id,
	})

	snapshot := reservation.Clone()
	s.publish(ctx, events.ReservationEvent{
		Action:      action,
		ActorID:     actor.ID,
		Reservation: &snapshot,
		OccurredAt:  s.store.Now(),
	})

	response := s.toResponse(snapshot)
	s.board.Publish(dto.BoardEvent{Type: BoardReservationChanged, Reservation: &response, OccurredAt: s.store.Now()})
	s.refreshQueueGauge()
}

// record appends to the activity log; failures never fail the mutation.
func (s *reservationService) record(ctx context.Context, entry ActivityEntry) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to record reservation activity")
	}
}

func (s *reservationService) publish(ctx context.Context, event events.ReservationEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("action", string(event.Action)).Msg("failed to publish reservation event")
	}
}

func (s *reservationService) fail(span trace.Span, operation string, err error) {
	kind := errorKind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	observability.ReservationOperations().WithLabelValues(operation, kind).Inc()

	event := s.logger.Info()
	if kind == "persistence" || kind == "unexpected" {
		event = s.logger.Error()
	}
	event.Err(err).Str("operation", operation).Str("kind", kind).Msg("reservation operation rejected")
}

func (s *reservationService) succeed(operation string) {
	observability.ReservationOperations().WithLabelValues(operation, "ok").Inc()
}

func (s *reservationService) refreshQueueGauge() {
	for status, count := range s.store.Counts() {
		observability.ReservationQueue().WithLabelValues(string(status)).Set(float64(count))
	}
}

func (s *reservationService) clean(purpose string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(purpose))
}

func (s *reservationService) toResponse(reservation models.Reservation) dto.ReservationResponse {
	roomName := ""
	if room, ok := s.store.Room(reservation.RoomID); ok {
		roomName = room.Name
	}
	return dto.NewReservationResponse(reservation, roomName)
}

func (s *reservationService) listResponse(reservations []models.Reservation) dto.ReservationListResponse {
	items := make([]dto.ReservationResponse, 0, len(reservations))
	counts := map[models.ReservationStatus]int{
		models.ReservationPending:  0,
		models.ReservationApproved: 0,
		models.ReservationDenied:   0,
	}
	for _, reservation := range reservations {
		items = append(items, s.toResponse(reservation))
		counts[reservation.Status]++
	}
	return dto.ReservationListResponse{
		Items:  items,
		Total:  len(items),
		Counts: countsResponse(counts),
	}
}

func countsResponse(counts map[models.ReservationStatus]int) map[string]int {
	out := map[string]int{
		string(models.ReservationPending):  0,
		string(models.ReservationApproved): 0,
		string(models.ReservationDenied):   0,
	}
	for status, count := range counts {
		out[string(status)] = count
	}
	return out
}

func describeReservation(reservation models.Reservation) string {
	return fmt.Sprintf("reservation #%d for %s on %s %s-%s",
		reservation.ID, reservation.RoomID, reservation.Date, reservation.StartTime, reservation.EndTime)
}

func errorKind(err error) string {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return "validation"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}
	return store.ErrorKind(err)
}
