package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/store"
)

const maxRoomNotes = 20

// RoomService exposes the room inventory and facility maintenance operations.
type RoomService interface {
	List(ctx context.Context, building string) ([]dto.RoomResponse, error)
	Get(ctx context.Context, id string) (dto.RoomResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, payload dto.RoomStatusUpdateRequest) (dto.RoomResponse, error)
	UpdateUtility(ctx context.Context, actor Actor, id string, payload dto.RoomUtilityUpdateRequest) (dto.RoomResponse, error)
	AddNote(ctx context.Context, actor Actor, id string, payload dto.RoomNoteRequest) (dto.RoomResponse, error)
	SeedDefaults(ctx context.Context) (dto.RoomSeedResponse, error)
}

type roomService struct {
	store     *store.Store
	validator *validator.Validate
	board     *RoomBoard
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewRoomService constructs the room service. board may be nil.
func NewRoomService(st *store.Store, validate *validator.Validate, board *RoomBoard, logger zerolog.Logger) RoomService {
	return &roomService{
		store:     st,
		validator: validate,
		board:     board,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/pau-bookit/bookit-api/internal/service/room"),
		logger:    logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *roomService) List(_ context.Context, building string) ([]dto.RoomResponse, error) {
	filter := models.Building(strings.ToUpper(strings.TrimSpace(building)))
	if filter != "" && !filter.Valid() {
		return nil, store.NewValidationError("building", "building must be SST or TYD")
	}

	rooms := s.store.Rooms()
	responses := make([]dto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		if filter != "" && room.Building != filter {
			continue
		}
		responses = append(responses, dto.NewRoomResponse(room))
	}
	return responses, nil
}

func (s *roomService) Get(_ context.Context, id string) (dto.RoomResponse, error) {
	room, ok := s.store.Room(strings.TrimSpace(id))
	if !ok {
		return dto.RoomResponse{}, &store.NotFoundError{Entity: "room", ID: id}
	}
	return dto.NewRoomResponse(room), nil
}

func (s *roomService) UpdateStatus(ctx context.Context, actor Actor, id string, payload dto.RoomStatusUpdateRequest) (dto.RoomResponse, error) {
	return s.update(ctx, "rooms.update_status", actor, id, payload, func(room *models.Room) error {
		room.Status = models.RoomStatus(payload.Status)
		return nil
	})
}

func (s *roomService) UpdateUtility(ctx context.Context, actor Actor, id string, payload dto.RoomUtilityUpdateRequest) (dto.RoomResponse, error) {
	return s.update(ctx, "rooms.update_utility", actor, id, payload, func(room *models.Room) error {
		if room.Utilities == nil {
			room.Utilities = make(map[string]models.UtilityState)
		}
		room.Utilities[payload.Utility] = models.UtilityState(payload.State)
		return nil
	})
}

func (s *roomService) AddNote(ctx context.Context, actor Actor, id string, payload dto.RoomNoteRequest) (dto.RoomResponse, error) {
	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	return s.update(ctx, "rooms.add_note", actor, id, payload, func(room *models.Room) error {
		if text == "" {
			return store.NewValidationError("text", "note must not be empty")
		}
		room.Notes = append([]models.RoomNote{{
			Text:      text,
			Author:    actor.ID,
			CreatedAt: s.store.Now(),
		}}, room.Notes...)
		if len(room.Notes) > maxRoomNotes {
			room.Notes = room.Notes[:maxRoomNotes]
		}
		return nil
	})
}

func (s *roomService) SeedDefaults(ctx context.Context) (dto.RoomSeedResponse, error) {
	added, err := s.store.SeedRooms(ctx, store.DefaultRooms(s.store.Now()))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to seed rooms")
		return dto.RoomSeedResponse{}, err
	}
	if added > 0 {
		s.logger.Info().Int("added", added).Msg("seeded room inventory")
	}
	return dto.RoomSeedResponse{Added: added}, nil
}

func (s *roomService) update(ctx context.Context, spanName string, actor Actor, id string, payload interface{}, fn func(room *models.Room) error) (dto.RoomResponse, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("room.id", id),
		attribute.String("room.actor_id", actor.ID),
	)
	defer span.End()

	if !actor.CanManageRooms() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.RoomResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation")
		return dto.RoomResponse{}, err
	}

	room, err := s.store.UpdateRoom(ctx, strings.TrimSpace(id), fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, store.ErrorKind(err))
		s.logger.Warn().Err(err).Str("room_id", id).Str("operation", spanName).Msg("room update rejected")
		return dto.RoomResponse{}, err
	}

	response := dto.NewRoomResponse(room)
	s.board.Publish(dto.BoardEvent{Type: BoardRoomUpdated, Room: &response, OccurredAt: room.UpdatedAt})
	s.logger.Info().Str("room_id", room.ID).Str("actor_id", actor.ID).Str("operation", spanName).Msg("room updated")

	return response, nil
}
