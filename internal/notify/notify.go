// Package notify delivers customer-facing notifications (order
// confirmations, password-reset links) off the request path.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindOrderConfirmation = "order.confirmation"
	KindPasswordReset     = "password.reset"
)

// Producer names this service in every envelope.
const Producer = "shopfront-api"

type Message struct {
	Kind          string
	To            string
	Subject       string
	Body          string
	CorrelationID string // order id or user id
	Payload       any
}

// Envelope is the wire format for broker-backed senders.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type mailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Data    any    `json:"data,omitempty"`
}

// Wrap builds the envelope for m.
func Wrap(m Message, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(mailPayload{To: m.To, Subject: m.Subject, Body: m.Body, Data: m.Payload})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     m.Kind,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      Producer,
		CorrelationID: m.CorrelationID,
		Payload:       raw,
	}, nil
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(ctx context.Context, m Message) error
	Close() error
}

// Notifier is what services depend on. Notify must not block the caller.
type Notifier interface {
	Notify(m Message)
}

// Discard drops every message. Handy for tests.
type Discard struct{}

func (Discard) Notify(Message) {}
