package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/observability"
	"github.com/pau-bookit/bookit-api/internal/store"
)

// ActivityEntry captures the details required to persist an activity record.
type ActivityEntry struct {
	ActorID       string
	Action        models.ActivityAction
	Description   string
	ReservationID *int64
}

// ActivityRecorder defines behaviour for recording activity.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService records and lists the admin activity feed.
type ActivityService interface {
	ActivityRecorder
	Recent(ctx context.Context, limit int) (dto.ActivityListResponse, error)
}

type activityService struct {
	store       *store.Store
	recentLimit int
	logger      zerolog.Logger
}

// NewActivityService constructs the activity service. recentLimit is the default size of Recent.
func NewActivityService(st *store.Store, recentLimit int, logger zerolog.Logger) ActivityService {
	if recentLimit <= 0 {
		recentLimit = store.DefaultRecentActivity
	}
	return &activityService{
		store:       st,
		recentLimit: recentLimit,
		logger:      logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(string(entry.Action)) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.ActorID) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("actor is required")
	}

	record := models.ActivityRecord{
		ID:            uuid.NewString(),
		Timestamp:     s.store.Now(),
		UserID:        entry.ActorID,
		Action:        entry.Action,
		Description:   strings.TrimSpace(entry.Description),
		ReservationID: entry.ReservationID,
	}

	if err := s.store.AppendActivity(ctx, record); err != nil {
		observability.ActivityRecordFailures().Inc()
		s.logger.Error().Err(err).Str("action", string(entry.Action)).Msg("failed to persist activity record")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(record), nil
}

func (s *activityService) Recent(_ context.Context, limit int) (dto.ActivityListResponse, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}

	records := s.store.RecentActivity(limit)
	items := make([]dto.ActivityResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewActivityResponse(record))
	}
	return dto.ActivityListResponse{Items: items}, nil
}
