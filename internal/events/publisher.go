package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// ReservationEvent is broadcast after a reservation mutation has been persisted.
type ReservationEvent struct {
	Action      models.ActivityAction `json:"action"`
	ActorID     string                `json:"actor_id"`
	Reservation *models.Reservation   `json:"reservation,omitempty"`
	Count       int                   `json:"count,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// Publisher delivers reservation events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}

// Connect dials the NATS server.
func Connect(url, name string) (*nats.Conn, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}
	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1), nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return conn, nil
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes each event on "<subject>.<action>".
func NewNATSPublisher(conn *nats.Conn, subject string) Publisher {
	return &natsPublisher{conn: conn, subject: subject}
}

func (p *natsPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode reservation event: %w", err)
	}
	return p.conn.Publish(Subject(p.subject, event.Action), payload)
}

// Subject builds the NATS subject for an action.
func Subject(base string, action models.ActivityAction) string {
	base = strings.Trim(strings.ReplaceAll(strings.TrimSpace(base), ":", "."), ".")
	if base == "" {
		base = "bookit.reservations"
	}
	return base + "." + string(action)
}

type nopPublisher struct{}

// Nop discards every event.
func Nop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, ReservationEvent) error {
	return nil
}
