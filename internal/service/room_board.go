package service

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/observability"
)

const (
	boardSendBufferSize = 16
	boardPingInterval   = 30 * time.Second
)

// Board event types.
const (
	BoardRoomUpdated         = "room.updated"
	BoardReservationChanged  = "reservation.changed"
	BoardReservationsCleared = "reservation.bulk_approved"
)

// BoardConnectionOptions scopes a websocket subscription.
type BoardConnectionOptions struct {
	UserID   string
	Building string
}

// RoomBoard fans room and reservation changes out to connected websocket clients.
type RoomBoard struct {
	mu      sync.RWMutex
	clients map[*boardClient]struct{}
	logger  zerolog.Logger
}

type boardClient struct {
	conn     *websocket.Conn
	send     chan dto.BoardEvent
	options  BoardConnectionOptions
	board    *RoomBoard
	closed   chan struct{}
	once     sync.Once
	building string
}

// NewRoomBoard creates an empty board.
func NewRoomBoard(logger zerolog.Logger) *RoomBoard {
	return &RoomBoard{
		clients: make(map[*boardClient]struct{}),
		logger:  logger.With().Str("component", "room_board").Logger(),
	}
}

// Serve registers the connection and blocks until the client disconnects.
func (b *RoomBoard) Serve(conn *websocket.Conn, opts BoardConnectionOptions) {
	client := &boardClient{
		conn:     conn,
		send:     make(chan dto.BoardEvent, boardSendBufferSize),
		options:  opts,
		board:    b,
		closed:   make(chan struct{}),
		building: strings.ToUpper(strings.TrimSpace(opts.Building)),
	}

	b.register(client)
	go client.writer()
	client.reader()
}

// Publish delivers the event to every client whose building filter matches.
func (b *RoomBoard) Publish(event dto.BoardEvent) {
	if b == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	building := eventBuilding(event)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		if client.building != "" && building != "" && client.building != building {
			continue
		}
		select {
		case client.send <- event:
		default:
			b.logger.Warn().Str("user_id", client.options.UserID).Msg("dropping board event for slow client")
		}
	}
}

// Connections returns the number of connected clients.
func (b *RoomBoard) Connections() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *RoomBoard) register(client *boardClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clients[client] = struct{}{}
	observability.BoardConnections().Inc()
	b.logger.Debug().Str("user_id", client.options.UserID).Str("building", client.building).Msg("board client connected")
}

func (b *RoomBoard) unregister(client *boardClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[client]; !ok {
		return
	}
	delete(b.clients, client)
	observability.BoardConnections().Dec()
	b.logger.Debug().Str("user_id", client.options.UserID).Msg("board client disconnected")
}

func eventBuilding(event dto.BoardEvent) string {
	switch {
	case event.Room != nil:
		return event.Room.Building
	case event.Reservation != nil:
		return buildingFromRoomID(event.Reservation.RoomID)
	}
	return ""
}

func buildingFromRoomID(roomID string) string {
	prefix, _, found := strings.Cut(roomID, "-")
	if !found {
		return ""
	}
	return strings.ToUpper(prefix)
}

// reader drains client frames so control messages are processed; the board is push only.
func (c *boardClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.board.logger.Debug().Err(err).Msg("board read loop ended")
			return
		}
	}
}

func (c *boardClient) writer() {
	defer c.close()

	ticker := time.NewTicker(boardPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.board.logger.Debug().Err(err).Msg("board write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.board.logger.Debug().Err(err).Msg("board ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *boardClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.board.unregister(c)
		_ = c.conn.Close()
	})
}
