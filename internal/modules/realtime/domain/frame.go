package domain

import (
	"encoding/json"
	"time"

	customers "customerSyncWs/internal/modules/customers/domain"
)

// Server→client frame types. Fanout frames use the event type itself as the
// frame type, so only the protocol frames are named here.
const (
	FrameConnectionEstablished   = "connection_established"
	FrameSubscriptionConfirmed   = "subscription_confirmed"
	FrameUnsubscriptionConfirmed = "unsubscription_confirmed"
	FrameAuthenticationSuccess   = "authentication_success"
	FramePong                    = "pong"
	FrameError                   = "error"
	FrameCustomerUpdated         = "customer_updated"
)

// Client→server command types.
const (
	CommandAuthenticate   = "authenticate"
	CommandSubscribe      = "subscribe"
	CommandUnsubscribe    = "unsubscribe"
	CommandPing           = "ping"
	CommandCustomerUpdate = "customer_update"
)

// Frame is the envelope for every message in both directions.
type Frame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

// NewFrame stamps the envelope with the current instant.
func NewFrame(frameType string, data any) Frame {
	return Frame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorFrame builds the error reply sent back on the offending connection.
func ErrorFrame(message string) Frame {
	return NewFrame(FrameError, map[string]string{"error": message})
}

// Command is a decoded inbound frame before its payload is interpreted.
type Command struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// AuthenticatePayload binds the connection to a customer. Token checking is
// delegated to the auth collaborator when one is configured.
type AuthenticatePayload struct {
	CustomerID string `json:"customerId"`
	Token      string `json:"token,omitempty"`
}

// SubscribePayload targets a topic, optionally narrowed to one entity.
// The same payload shape serves unsubscribe.
type SubscribePayload struct {
	Topic    string `json:"topic"`
	EntityID string `json:"entityId,omitempty"`
}

// CustomerUpdatePayload is the one domain command on the wire; it is routed
// to the write path only when the connection owns the target customer.
type CustomerUpdatePayload struct {
	CustomerID string         `json:"customerId"`
	UpdateData CustomerUpdate `json:"updateData"`
}

// CustomerUpdate mirrors the orchestrator's partial-update shape.
type CustomerUpdate struct {
	Email       *string           `json:"email,omitempty"`
	Phone       *string           `json:"phone,omitempty"`
	FirstName   *string           `json:"firstName,omitempty"`
	LastName    *string           `json:"lastName,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// SubscriptionKey derives the key a subscribe/unsubscribe command resolves
// to. It is the same rule events use for their topics, so a subscription
// matches exactly the frames it asks for.
func SubscriptionKey(topic, entityID string) string {
	return customers.Topic(topic, entityID)
}
