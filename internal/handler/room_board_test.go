package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pau-bookit/bookit-api/internal/models"
)

type boardFrame struct {
	Type        string `json:"type"`
	Reservation *struct {
		ID     int64  `json:"id"`
		RoomID string `json:"room_id"`
		Status string `json:"status"`
	} `json:"reservation"`
}

func startFiberServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	t.Cleanup(func() {
		_ = app.ShutdownWithTimeout(time.Second)
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})

	return listener.Addr().String()
}

func boardURL(addr, token, building string) string {
	query := url.Values{}
	if token != "" {
		query.Set("access_token", token)
	}
	if building != "" {
		query.Set("building", building)
	}
	return (&url.URL{Scheme: "ws", Host: addr, Path: "/api/v1/rooms/board", RawQuery: query.Encode()}).String()
}

func dialBoard(t *testing.T, addr, token, building string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(boardURL(addr, token, building), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func submitOverHTTP(t *testing.T, addr, token string, body map[string]string) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/api/v1/reservations", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp.StatusCode
}

func readFrame(t *testing.T, conn *websocket.Conn) boardFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame boardFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestRoomBoardStreamsReservationChanges(t *testing.T) {
	server := newTestServer(t)
	addr := startFiberServer(t, server.app)

	everything := dialBoard(t, addr, server.tokens[models.RoleStudent], "")
	tyd := dialBoard(t, addr, server.tokens[models.RoleFacility], "tyd")
	require.Eventually(t, func() bool { return server.board.Connections() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, fiber.StatusCreated, submitOverHTTP(t, addr, server.tokens[models.RoleStudent], reservationBody("SST-CR1", "2024-05-01", "09:00", "10:00")))

	frame := readFrame(t, everything)
	require.Equal(t, "reservation.changed", frame.Type)
	require.NotNil(t, frame.Reservation)
	require.Equal(t, "SST-CR1", frame.Reservation.RoomID)
	require.Equal(t, string(models.ReservationPending), frame.Reservation.Status)

	require.Equal(t, fiber.StatusCreated, submitOverHTTP(t, addr, server.tokens[models.RoleFaculty], reservationBody("TYD-CR2", "2024-05-01", "09:00", "10:00")))

	// The SST change was filtered out, so the TYD client's first frame is the TYD one.
	frame = readFrame(t, tyd)
	require.Equal(t, "reservation.changed", frame.Type)
	require.Equal(t, "TYD-CR2", frame.Reservation.RoomID)

	frame = readFrame(t, everything)
	require.Equal(t, "TYD-CR2", frame.Reservation.RoomID)

	require.NoError(t, everything.Close())
	require.Eventually(t, func() bool { return server.board.Connections() == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestRoomBoardFilteredClientReceivesNothingForOtherBuildings(t *testing.T) {
	server := newTestServer(t)
	addr := startFiberServer(t, server.app)

	tyd := dialBoard(t, addr, server.tokens[models.RoleStudent], "TYD")
	require.Eventually(t, func() bool { return server.board.Connections() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.Equal(t, fiber.StatusCreated, submitOverHTTP(t, addr, server.tokens[models.RoleStudent], reservationBody("SST-LAB1", "2024-05-01", "13:00", "14:00")))

	require.NoError(t, tyd.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := tyd.ReadMessage()
	var netErr net.Error
	require.True(t, errors.As(err, &netErr), "expected a read timeout, got %v", err)
	require.True(t, netErr.Timeout())
}

func TestRoomBoardRefusesUnauthenticatedAndPlainRequests(t *testing.T) {
	server := newTestServer(t)
	addr := startFiberServer(t, server.app)

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(boardURL(addr, "", ""), nil)
	if conn != nil {
		_ = conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dialer.Dial(boardURL(addr, "not-a-token", ""), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, "http://"+addr+"/api/v1/rooms/board", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+server.tokens[models.RoleStudent])
	plain, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, plain.Body.Close())
	require.Equal(t, fiber.StatusUpgradeRequired, plain.StatusCode)
	require.Zero(t, server.board.Connections())
}
