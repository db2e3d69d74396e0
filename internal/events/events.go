// Package events publishes domain events. A NATS-backed publisher is used
// when a broker is configured; the no-op publisher keeps the service fully
// functional without one.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wandertrails/tours-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Subjects
const (
	UserRegistered = "users.registered"
	PasswordReset  = "users.password_reset"
	TourCreated    = "tours.created"
	ReviewCreated  = "reviews.created"
)

type UserRegisteredEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordResetEvent struct {
	UserID  int64     `json:"user_id"`
	ResetAt time.Time `json:"reset_at"`
}

type TourCreatedEvent struct {
	TourID    int64     `json:"tour_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCreatedEvent struct {
	ReviewID  int64     `json:"review_id"`
	TourID    int64     `json:"tour_id"`
	UserID    int64     `json:"user_id"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.WithContext(ctx).Debug("publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher drops events; used when NATS_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
