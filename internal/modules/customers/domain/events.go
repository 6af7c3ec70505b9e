package domain

import "time"

// EventType identifies one of the fixed event kinds emitted by the write
// path. The wire frame type sent to live connections equals this string.
type EventType string

const (
	EventCustomerCreated     EventType = "CUSTOMER_CREATED"
	EventCustomerUpdated     EventType = "CUSTOMER_UPDATED"
	EventCustomerDeleted     EventType = "CUSTOMER_DELETED"
	EventCustomerActivated   EventType = "CUSTOMER_ACTIVATED"
	EventCustomerDeactivated EventType = "CUSTOMER_DEACTIVATED"
	EventAddressAdded        EventType = "ADDRESS_ADDED"
	EventAddressUpdated      EventType = "ADDRESS_UPDATED"
	EventAddressDeleted      EventType = "ADDRESS_DELETED"
	EventLoyaltyUpdated      EventType = "LOYALTY_POINTS_UPDATED"
	EventNotificationSent    EventType = "NOTIFICATION_SENT"
	EventActivityLogged      EventType = "ACTIVITY_LOGGED"
)

// Topic derives the routing key shared by the in-process bus and the live
// connection subscriptions. Pure: same inputs always yield the same string.
func Topic(eventType, entityID string) string {
	if entityID == "" {
		return eventType
	}
	return eventType + "_" + entityID
}

// EventPayload is the closed set of payload shapes an Event can carry.
type EventPayload interface {
	eventPayload()
}

// CustomerPayload accompanies customer lifecycle events.
type CustomerPayload struct {
	Customer *Customer `json:"customer"`
}

// CustomerDeletedPayload carries only the id, the aggregate is gone.
type CustomerDeletedPayload struct {
	CustomerID string `json:"customerId"`
}

// AddressPayload accompanies address sub-entity events.
type AddressPayload struct {
	CustomerID string  `json:"customerId"`
	Address    Address `json:"address"`
}

// LoyaltyPayload accompanies loyalty point adjustments.
type LoyaltyPayload struct {
	CustomerID string `json:"customerId"`
	Points     int    `json:"points"`
	Delta      int    `json:"delta"`
}

// NotificationPayload accompanies notification-sent events.
type NotificationPayload struct {
	CustomerID   string       `json:"customerId"`
	Notification Notification `json:"notification"`
}

// ActivityPayload accompanies activity log events.
type ActivityPayload struct {
	CustomerID string        `json:"customerId"`
	Entry      ActivityEntry `json:"entry"`
}

func (CustomerPayload) eventPayload()        {}
func (CustomerDeletedPayload) eventPayload() {}
func (AddressPayload) eventPayload()         {}
func (LoyaltyPayload) eventPayload()         {}
func (NotificationPayload) eventPayload()    {}
func (ActivityPayload) eventPayload()        {}

// EventMetadata travels with every event through all fanout channels.
type EventMetadata struct {
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"requestId,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// Event is the unit handed to the fanout router after every successful
// mutation. EntityID is the aggregate root id (empty for events not scoped
// to a single customer).
type Event struct {
	Type     EventType     `json:"eventType"`
	EntityID string        `json:"entityId,omitempty"`
	Payload  EventPayload  `json:"payload"`
	Meta     EventMetadata `json:"metadata"`
}

// Topic returns the routing key for this event.
func (e Event) Topic() string {
	return Topic(string(e.Type), e.EntityID)
}
