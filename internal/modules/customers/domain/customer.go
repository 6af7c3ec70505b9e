package domain

import (
	"strings"
	"time"
)

// Customer es el agregado raíz: toda clave de cache y todo evento se
// direcciona por su id, nunca por el id de una sub-entidad.
type Customer struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone,omitempty"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Active        bool              `json:"active"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	Addresses     []Address         `json:"addresses,omitempty"`
	LoyaltyPoints int               `json:"loyaltyPoints"`
	Activity      []ActivityEntry   `json:"activity,omitempty"`
	Notifications []Notification    `json:"notifications,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Address is a sub-entity of the customer aggregate. It is always addressed
// through the owning customer id.
type Address struct {
	ID         string `json:"id"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
	Primary    bool   `json:"primary"`
}

// Notification records an outbound notification already handed to the
// delivery channel; the core only keeps it as part of the aggregate.
type Notification struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Subject string    `json:"subject"`
	Body    string    `json:"body,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// ActivityEntry is a line of the customer activity log.
type ActivityEntry struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

// Clone returns a deep copy so callers can hand aggregates across goroutine
// boundaries without sharing mutable state.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cloned := *c
	if c.Preferences != nil {
		cloned.Preferences = make(map[string]string, len(c.Preferences))
		for k, v := range c.Preferences {
			cloned.Preferences[k] = v
		}
	}
	if c.Addresses != nil {
		cloned.Addresses = append([]Address(nil), c.Addresses...)
	}
	if c.Activity != nil {
		cloned.Activity = append([]ActivityEntry(nil), c.Activity...)
	}
	if c.Notifications != nil {
		cloned.Notifications = append([]Notification(nil), c.Notifications...)
	}
	return &cloned
}

// AddressByID finds a sub-entity address inside the aggregate.
func (c *Customer) AddressByID(id string) (Address, bool) {
	id = strings.TrimSpace(id)
	for _, addr := range c.Addresses {
		if addr.ID == id {
			return addr, true
		}
	}
	return Address{}, false
}

// NormalizeEmail canonicalizes emails before they are used as unique keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
