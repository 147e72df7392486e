package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// WebhookTopic is the remote event type an endpoint subscribes to.
type WebhookTopic string

const (
	TopicOrderCreated   WebhookTopic = "order.created"
	TopicOrderUpdated   WebhookTopic = "order.updated"
	TopicOrderPaid      WebhookTopic = "order.paid"
	TopicOrderCompleted WebhookTopic = "order.completed"
)

// DefaultOrderPrefix is prepended to local order numbers created from
// inbound deliveries.
const DefaultOrderPrefix = "WC-"

// WebhookEndpoint is the inbound delivery configuration owned by a
// Connection. Token is the unguessable path segment the remote store posts
// to; Secret, when set, enables HMAC signature verification.
type WebhookEndpoint struct {
	ID           uuid.UUID    `json:"id"`
	ConnectionID uuid.UUID    `json:"connection_id"`
	Name         string       `json:"name"`
	Token        string       `json:"token"`
	Secret       string       `json:"-"`
	Topic        WebhookTopic `json:"topic"`
	Active       bool         `json:"active"`

	AutoCreateOrder    bool   `json:"auto_create_order"`
	AutoCreateCustomer bool   `json:"auto_create_customer"`
	OrderPrefix        string `json:"order_prefix"`

	CreatedAt time.Time `json:"created_at"`
}

// NewEndpointToken generates the unguessable URL path segment for a new
// endpoint: 32 hex characters from a CSPRNG.
func NewEndpointToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// DeliveryOutcome is the terminal state of one inbound delivery.
type DeliveryOutcome string

const (
	// DeliverySuccess covers applied deliveries and idempotent replays.
	DeliverySuccess DeliveryOutcome = "success"
	// DeliveryRejected means the delivery failed validation (signature or
	// shape) and produced no side effects.
	DeliveryRejected DeliveryOutcome = "rejected"
	// DeliveryError means validation passed but applying the order failed.
	DeliveryError DeliveryOutcome = "error"
)

// RejectInvalidSignature is the log message for a signature mismatch. The
// handler maps it to 401 so the sender can tell a secret misconfiguration
// apart from a malformed payload.
const RejectInvalidSignature = "invalid signature"

// WebhookLog is the immutable record of one inbound delivery attempt.
// Exactly one row per delivery; never mutated after creation.
type WebhookLog struct {
	ID         uuid.UUID       `json:"id"`
	EndpointID uuid.UUID       `json:"endpoint_id"`
	RawPayload []byte          `json:"raw_payload"`
	ReceivedAt time.Time       `json:"received_at"`
	Outcome    DeliveryOutcome `json:"outcome"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty"`
	Message    string          `json:"message"`
}
