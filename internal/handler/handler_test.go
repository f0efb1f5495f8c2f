package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/handler"
	"github.com/pau-bookit/bookit-api/internal/identity"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/router"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/store"
)

type testServer struct {
	app    *fiber.App
	store  *store.Store
	board  *service.RoomBoard
	tokens map[models.Role]string
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]int         `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	logger := zerolog.New(io.Discard)
	now := time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	st := store.New(models.BookingDocument{Rooms: store.DefaultRooms(now)}, nil, store.WithClock(clock))
	validate := service.NewValidator()
	board := service.NewRoomBoard(logger)
	activity := service.NewActivityService(st, 5, logger)
	reservations := service.NewReservationService(st, validate, service.ReservationServiceConfig{Activity: activity, Board: board}, logger)
	rooms := service.NewRoomService(st, validate, board, logger)

	codec := identity.NewTokenCodec("handler-secret", "pau-bookit", time.Hour)
	auth := service.NewAuthService(identity.NewJWTProvider(codec), validate, logger)

	tokens := make(map[models.Role]string)
	for _, user := range []models.User{
		{ID: "admin-1", Name: "Ada", Role: models.RoleAdmin, Active: true},
		{ID: "student-1", Name: "Sam", Role: models.RoleStudent, Active: true},
		{ID: "faculty-1", Name: "Femi", Role: models.RoleFaculty, Active: true},
		{ID: "facility-1", Name: "Fola", Role: models.RoleFacility, Active: true},
	} {
		token, _, err := codec.Issue(user)
		require.NoError(t, err)
		tokens[user.Role] = token
	}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "bookit-test", AppEnv: "test"}, router.Dependencies{
		AuthHandler:             handler.NewAuthHandler(auth, logger),
		ReservationHandler:      handler.NewReservationHandler(reservations, logger),
		AdminReservationHandler: handler.NewAdminReservationHandler(reservations, logger),
		ActivityHandler:         handler.NewActivityHandler(activity, logger),
		RoomHandler:             handler.NewRoomHandler(rooms, reservations, board, logger),
		State:                   st,
		Authenticator:           auth,
		LoginRateLimit:          100,
		SubmitRateLimit:         100,
	})

	return testServer{app: app, store: st, board: board, tokens: tokens}
}

func (s testServer) do(t *testing.T, method, path string, role models.Role, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := s.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func reservationBody(room, date, start, end string) map[string]string {
	return map[string]string{"room_id": room, "date": date, "start_time": start, "end_time": end, "purpose": "Lecture"}
}

func TestHealthIsPublic(t *testing.T) {
	server := newTestServer(t)

	resp, env := server.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, env.Success)
	require.Equal(t, "bookit-test", resp.Header.Get("X-Application"))

	var health handler.HealthResponse
	decodeData(t, env, &health)
	require.Equal(t, 14, health.Rooms)
	require.Equal(t, 14, health.OpenRooms)
	require.Zero(t, health.PendingQueue)
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, env := server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleStudent, reservationBody("SST-CR1", "2024-05-01", "09:00", "10:00"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &created)
	require.Equal(t, "PENDING", created.Status)

	resp, env = server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleFaculty, reservationBody("SST-CR1", "2024-05-01", "09:30", "10:30"))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.False(t, env.Success)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleFaculty, reservationBody("SST-CR1", "2024-05-01", "10:00", "11:00"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env = server.do(t, http.MethodGet, "/api/v1/admin/reservations?status=PENDING", models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 2, env.Meta["PENDING"])

	path := "/api/v1/admin/reservations/" + jsonInt(created.ID) + "/review"
	resp, env = server.do(t, http.MethodPatch, path, models.RoleAdmin, map[string]string{"decision": "approve"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, env, &created)
	require.Equal(t, "APPROVED", created.Status)

	resp, _ = server.do(t, http.MethodPatch, path, models.RoleAdmin, map[string]string{"decision": "deny"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, env = server.do(t, http.MethodPost, "/api/v1/admin/reservations/bulk-approve", models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var bulk struct {
		Approved int `json:"approved"`
	}
	decodeData(t, env, &bulk)
	require.Equal(t, 1, bulk.Approved)

	resp, env = server.do(t, http.MethodGet, "/api/v1/admin/activity", models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var activity []struct {
		Action string `json:"action"`
	}
	decodeData(t, env, &activity)
	require.Len(t, activity, 4)
	require.Equal(t, "bulk_approved", activity[0].Action)

	resp, env = server.do(t, http.MethodGet, "/api/v1/reservations/mine", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, env.Meta["APPROVED"])
}

func TestReservationValidationReportsFields(t *testing.T) {
	server := newTestServer(t)

	resp, env := server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleStudent, map[string]string{"room_id": "SST-CR1", "date": "2024-05-01", "start_time": "9am"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "must be HH:MM", env.Details["start_time"])
	require.Equal(t, "is required", env.Details["end_time"])

	resp, env = server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleStudent, reservationBody("SST-CR1", "2024-05-01", "11:00", "10:00"))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, env.Details, "end_time")

	resp, _ = server.do(t, http.MethodPatch, "/api/v1/admin/reservations/abc/review", models.RoleAdmin, map[string]string{"decision": "approve"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPatch, "/api/v1/admin/reservations/999/review", models.RoleAdmin, map[string]string{"decision": "approve"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	server := newTestServer(t)

	resp, _ := server.do(t, http.MethodGet, "/api/v1/rooms", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/admin/reservations", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleFacility, reservationBody("SST-CR1", "2024-05-01", "09:00", "10:00"))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPatch, "/api/v1/facility/rooms/SST-CR1/status", models.RoleFaculty, map[string]string{"status": "UNAVAILABLE"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env := server.do(t, http.MethodGet, "/api/v1/auth/me", models.RoleFacility, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	decodeData(t, env, &me)
	require.Equal(t, "facility-1", me.ID)
	require.Equal(t, "facility", me.Role)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@pau.edu.ng", "password": "x"})
	require.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

func TestFacilityMaintenanceAndAvailability(t *testing.T) {
	server := newTestServer(t)

	resp, env := server.do(t, http.MethodPatch, "/api/v1/facility/rooms/TYD-LH1/status", models.RoleFacility, map[string]string{"status": "unavailable"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var room struct {
		Status    string            `json:"status"`
		Utilities map[string]string `json:"utilities"`
		Notes     []struct {
			Text string `json:"text"`
		} `json:"notes"`
	}
	decodeData(t, env, &room)
	require.Equal(t, "UNAVAILABLE", room.Status)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/reservations", models.RoleFaculty, reservationBody("TYD-LH1", "2024-05-03", "09:00", "10:00"))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, env = server.do(t, http.MethodPatch, "/api/v1/facility/rooms/TYD-LH1/utilities", models.RoleAdmin, map[string]string{"utility": "Projector", "state": "faulty"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeData(t, env, &room)
	require.Equal(t, "FAULTY", room.Utilities["projector"])

	resp, env = server.do(t, http.MethodPost, "/api/v1/facility/rooms/TYD-LH1/notes", models.RoleFacility, map[string]string{"text": "Awaiting new bulb"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	decodeData(t, env, &room)
	require.Equal(t, "Awaiting new bulb", room.Notes[0].Text)

	resp, env = server.do(t, http.MethodGet, "/api/v1/rooms/SST-CR2/availability?date=2024-05-03&start_time=08:00&end_time=09:00", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var availability struct {
		Available   *bool `json:"available"`
		FreeWindows []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"free_windows"`
	}
	decodeData(t, env, &availability)
	require.NotNil(t, availability.Available)
	require.True(t, *availability.Available)
	require.Len(t, availability.FreeWindows, 1)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/rooms/SST-CR2/availability", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/rooms/NOPE/availability?date=2024-05-03", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, env = server.do(t, http.MethodGet, "/api/v1/rooms?building=SST", models.RoleStudent, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var rooms []struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &rooms)
	require.Len(t, rooms, 8)
}

func TestAdminDeleteAndDashboard(t *testing.T) {
	server := newTestServer(t)

	resp, env := server.do(t, http.MethodPost, "/api/v1/admin/reservations", models.RoleAdmin, map[string]string{
		"room_id": "SST-LAB2", "date": "2024-05-04", "start_time": "13:00", "end_time": "15:00", "requester_id": "faculty-1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created struct {
		ID           int64  `json:"id"`
		Status       string `json:"status"`
		AdminCreated bool   `json:"admin_created"`
	}
	decodeData(t, env, &created)
	require.Equal(t, "APPROVED", created.Status)
	require.True(t, created.AdminCreated)

	resp, env = server.do(t, http.MethodDelete, "/api/v1/admin/reservations/"+jsonInt(created.ID), models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "reservation deleted", env.Message)

	resp, env = server.do(t, http.MethodDelete, "/api/v1/admin/reservations/"+jsonInt(created.ID), models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "reservation not found", env.Message)

	resp, env = server.do(t, http.MethodGet, "/api/v1/admin/dashboard", models.RoleAdmin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var dashboard struct {
		Counts         map[string]int `json:"counts"`
		RecentActivity []struct {
			Action string `json:"action"`
		} `json:"recent_activity"`
	}
	decodeData(t, env, &dashboard)
	require.Equal(t, 0, dashboard.Counts["APPROVED"])
	require.Equal(t, "deleted", dashboard.RecentActivity[0].Action)
	require.Equal(t, "created", dashboard.RecentActivity[1].Action)
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
