package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"customerSyncWs/internal/modules/customers/application/port"
	"customerSyncWs/internal/modules/customers/domain"
	"customerSyncWs/internal/platform/cache"
)

// Service is the single place mutations flow through: persistent write,
// cache write-through on the aggregate root, then event fanout. Store
// failures abort the operation before any side effect; cache and fanout
// failures are logged and swallowed because the authoritative write already
// committed.
type Service struct {
	store    port.Store
	cache    port.Cache
	events   port.EventSink
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
}

// NewService wires the orchestrator. A nil cache or sink would be a wiring
// bug; pass cache.Noop or a no-op sink instead.
func NewService(store port.Store, cacheStore port.Cache, events port.EventSink, cacheTTL time.Duration) *Service {
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		store:    store,
		cache:    cacheStore,
		events:   events,
		cacheTTL: cacheTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateCustomerInput carries already-validated parameters from the
// transport handlers.
type CreateCustomerInput struct {
	Email       string
	Phone       string
	FirstName   string
	LastName    string
	Preferences map[string]string
	RequestID   string
}

// UpdateCustomerInput mirrors port.CustomerUpdate plus the caller-supplied
// request id; nil fields stay untouched.
type UpdateCustomerInput struct {
	Email       *string
	Phone       *string
	FirstName   *string
	LastName    *string
	Preferences map[string]string
	RequestID   string
}

// AddressInput carries a validated address sub-entity payload.
type AddressInput struct {
	Line1      string
	Line2      string
	City       string
	Country    string
	PostalCode string
	Primary    bool
	RequestID  string
}

func (s *Service) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	customer := &domain.Customer{
		ID:          s.newID(),
		Email:       domain.NormalizeEmail(in.Email),
		Phone:       in.Phone,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Active:      true,
		Preferences: in.Preferences,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	s.writeThrough(ctx, customer)
	s.emit(ctx, domain.EventCustomerCreated, customer.ID, domain.CustomerPayload{Customer: customer}, in.RequestID)
	return customer, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, in UpdateCustomerInput) (*domain.Customer, error) {
	updated, err := s.store.UpdateCustomer(ctx, id, port.CustomerUpdate{
		Email:       in.Email,
		Phone:       in.Phone,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Preferences: in.Preferences,
	})
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventCustomerUpdated, updated.ID, domain.CustomerPayload{Customer: updated}, in.RequestID)
	return updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id, requestID string) error {
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, cache.CustomerKey(id))
	s.cache.Delete(ctx, cache.EmailKey(customer.Email))
	s.emit(ctx, domain.EventCustomerDeleted, id, domain.CustomerDeletedPayload{CustomerID: id}, requestID)
	return nil
}

func (s *Service) SetCustomerActive(ctx context.Context, id string, active bool, requestID string) (*domain.Customer, error) {
	updated, err := s.store.SetCustomerActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	eventType := domain.EventCustomerActivated
	if !active {
		eventType = domain.EventCustomerDeactivated
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, eventType, updated.ID, domain.CustomerPayload{Customer: updated}, requestID)
	return updated, nil
}

func (s *Service) AddAddress(ctx context.Context, customerID string, in AddressInput) (*domain.Customer, error) {
	address := domain.Address{
		ID:         s.newID(),
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		Country:    in.Country,
		PostalCode: in.PostalCode,
		Primary:    in.Primary,
	}
	updated, err := s.store.AddAddress(ctx, customerID, address)
	if err != nil {
		return nil, err
	}
	// Cache granularity is the aggregate root, never the sub-entity.
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventAddressAdded, customerID, domain.AddressPayload{CustomerID: customerID, Address: address}, in.RequestID)
	return updated, nil
}

func (s *Service) UpdateAddress(ctx context.Context, customerID string, address domain.Address, requestID string) (*domain.Customer, error) {
	updated, err := s.store.UpdateAddress(ctx, customerID, address)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventAddressUpdated, customerID, domain.AddressPayload{CustomerID: customerID, Address: address}, requestID)
	return updated, nil
}

func (s *Service) DeleteAddress(ctx context.Context, customerID, addressID, requestID string) (*domain.Customer, error) {
	updated, err := s.store.DeleteAddress(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventAddressDeleted, customerID, domain.AddressPayload{CustomerID: customerID, Address: domain.Address{ID: addressID}}, requestID)
	return updated, nil
}

func (s *Service) AdjustLoyaltyPoints(ctx context.Context, customerID string, delta int, requestID string) (*domain.Customer, error) {
	updated, err := s.store.AdjustLoyaltyPoints(ctx, customerID, delta)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventLoyaltyUpdated, customerID, domain.LoyaltyPayload{
		CustomerID: customerID,
		Points:     updated.LoyaltyPoints,
		Delta:      delta,
	}, requestID)
	return updated, nil
}

func (s *Service) RecordActivity(ctx context.Context, customerID, kind, note, requestID string) (*domain.Customer, error) {
	entry := domain.ActivityEntry{ID: s.newID(), Kind: kind, Note: note, At: s.now().UTC()}
	updated, err := s.store.AppendActivity(ctx, customerID, entry)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventActivityLogged, customerID, domain.ActivityPayload{CustomerID: customerID, Entry: entry}, requestID)
	return updated, nil
}

func (s *Service) SendNotification(ctx context.Context, customerID, channel, subject, body, requestID string) (*domain.Customer, error) {
	notification := domain.Notification{
		ID:      s.newID(),
		Channel: channel,
		Subject: subject,
		Body:    body,
		SentAt:  s.now().UTC(),
	}
	updated, err := s.store.AppendNotification(ctx, customerID, notification)
	if err != nil {
		return nil, err
	}
	s.writeThrough(ctx, updated)
	s.emit(ctx, domain.EventNotificationSent, customerID, domain.NotificationPayload{
		CustomerID:   customerID,
		Notification: notification,
	}, requestID)
	return updated, nil
}

// GetCustomer reads aside: cache hit wins, a miss falls back to the store
// and repopulates the cache without blocking the response.
func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if data, ok := s.cache.Get(ctx, cache.CustomerKey(id)); ok {
		var customer domain.Customer
		if err := json.Unmarshal(data, &customer); err == nil {
			return &customer, nil
		}
		slog.Warn("cached customer payload unreadable, falling back to store", slog.String("customerId", id))
	}

	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populateAsync(customer)
	return customer, nil
}

func (s *Service) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if data, ok := s.cache.Get(ctx, cache.EmailKey(email)); ok {
		if customer, err := s.GetCustomer(ctx, string(data)); err == nil {
			return customer, nil
		}
	}

	customer, err := s.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.populateAsync(customer)
	return customer, nil
}

// SearchCustomers caches result sets under a hashed query key.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]*domain.Customer, error) {
	key := cache.SearchKey(query)
	if data, ok := s.cache.Get(ctx, key); ok {
		var results []*domain.Customer
		if err := json.Unmarshal(data, &results); err == nil {
			return results, nil
		}
	}

	results, err := s.store.SearchCustomers(ctx, query)
	if err != nil {
		return nil, err
	}
	go func() {
		if data, err := json.Marshal(results); err == nil {
			s.cache.Set(context.Background(), key, data, s.cacheTTL)
		}
	}()
	return results, nil
}

// writeThrough refreshes the aggregate-root entry with the post-mutation
// payload so the next read is a hit instead of a stampede of misses.
func (s *Service) writeThrough(ctx context.Context, customer *domain.Customer) {
	data, err := json.Marshal(customer)
	if err != nil {
		slog.Warn("cache write-through marshal failed", slog.String("customerId", customer.ID), slog.Any("error", err))
		return
	}
	s.cache.Set(ctx, cache.CustomerKey(customer.ID), data, s.cacheTTL)
	s.cache.Set(ctx, cache.EmailKey(customer.Email), []byte(customer.ID), s.cacheTTL)
}

// populateAsync repopulates after a read miss. The response is already on
// its way back with fresh data; a failed populate only costs the next read
// a store round trip.
func (s *Service) populateAsync(customer *domain.Customer) {
	snapshot := customer.Clone()
	go func() {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return
		}
		ctx := context.Background()
		s.cache.Set(ctx, cache.CustomerKey(snapshot.ID), data, s.cacheTTL)
		s.cache.Set(ctx, cache.EmailKey(snapshot.Email), []byte(snapshot.ID), s.cacheTTL)
	}()
}

func (s *Service) emit(ctx context.Context, eventType domain.EventType, entityID string, payload domain.EventPayload, requestID string) {
	event := domain.Event{
		Type:     eventType,
		EntityID: entityID,
		Payload:  payload,
		Meta: domain.EventMetadata{
			Timestamp:     s.now().UTC(),
			RequestID:     requestID,
			CorrelationID: s.newID(),
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		slog.Warn("event fanout failed",
			slog.String("eventType", string(eventType)),
			slog.String("entityId", entityID),
			slog.Any("error", err),
		)
	}
}
