package infrastructure

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"customerSyncWs/internal/modules/customers/application/port"
	"customerSyncWs/internal/modules/customers/domain"
)

// MemoryStore is an in-memory persistent store honoring the Store port
// contract, including email/phone uniqueness. It backs local runs and
// tests; a database-backed implementation plugs in behind the same port.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Customer
	byEmail map[string]string
	byPhone map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*domain.Customer),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) CreateCustomer(_ context.Context, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := domain.NormalizeEmail(customer.Email)
	if _, exists := s.byEmail[email]; exists {
		return domain.ErrConflict
	}
	if customer.Phone != "" {
		if _, exists := s.byPhone[customer.Phone]; exists {
			return domain.ErrConflict
		}
	}
	if _, exists := s.byID[customer.ID]; exists {
		return domain.ErrConflict
	}

	now := s.now().UTC()
	customer.Email = email
	customer.CreatedAt = now
	customer.UpdatedAt = now

	s.byID[customer.ID] = customer.Clone()
	s.byEmail[email] = customer.ID
	if customer.Phone != "" {
		s.byPhone[customer.Phone] = customer.ID
	}
	return nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return customer.Clone(), nil
}

func (s *MemoryStore) GetCustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) UpdateCustomer(_ context.Context, id string, update port.CustomerUpdate) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if owner, taken := s.byEmail[email]; taken && owner != id {
			return nil, domain.ErrConflict
		}
		delete(s.byEmail, customer.Email)
		customer.Email = email
		s.byEmail[email] = id
	}
	if update.Phone != nil {
		phone := strings.TrimSpace(*update.Phone)
		if phone != "" {
			if owner, taken := s.byPhone[phone]; taken && owner != id {
				return nil, domain.ErrConflict
			}
		}
		if customer.Phone != "" {
			delete(s.byPhone, customer.Phone)
		}
		customer.Phone = phone
		if phone != "" {
			s.byPhone[phone] = id
		}
	}
	if update.FirstName != nil {
		customer.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		customer.LastName = *update.LastName
	}
	if update.Preferences != nil {
		if customer.Preferences == nil {
			customer.Preferences = make(map[string]string, len(update.Preferences))
		}
		for k, v := range update.Preferences {
			customer.Preferences[k] = v
		}
	}

	customer.UpdatedAt = s.now().UTC()
	return customer.Clone(), nil
}

func (s *MemoryStore) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.byEmail, customer.Email)
	if customer.Phone != "" {
		delete(s.byPhone, customer.Phone)
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) SetCustomerActive(_ context.Context, id string, active bool) (*domain.Customer, error) {
	return s.mutate(id, func(c *domain.Customer) error {
		c.Active = active
		return nil
	})
}

func (s *MemoryStore) SearchCustomers(_ context.Context, query string) ([]*domain.Customer, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.Customer, 0)
	for _, customer := range s.byID {
		if needle == "" || matches(customer, needle) {
			results = append(results, customer.Clone())
		}
	}
	return results, nil
}

func (s *MemoryStore) AddAddress(_ context.Context, customerID string, address domain.Address) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		if address.ID == "" {
			address.ID = uuid.NewString()
		}
		if address.Primary {
			for i := range c.Addresses {
				c.Addresses[i].Primary = false
			}
		}
		c.Addresses = append(c.Addresses, address)
		return nil
	})
}

func (s *MemoryStore) UpdateAddress(_ context.Context, customerID string, address domain.Address) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		for i := range c.Addresses {
			if c.Addresses[i].ID == address.ID {
				if address.Primary {
					for j := range c.Addresses {
						c.Addresses[j].Primary = false
					}
				}
				c.Addresses[i] = address
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *MemoryStore) DeleteAddress(_ context.Context, customerID, addressID string) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		for i := range c.Addresses {
			if c.Addresses[i].ID == addressID {
				c.Addresses = append(c.Addresses[:i], c.Addresses[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *MemoryStore) AdjustLoyaltyPoints(_ context.Context, customerID string, delta int) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		c.LoyaltyPoints += delta
		if c.LoyaltyPoints < 0 {
			c.LoyaltyPoints = 0
		}
		return nil
	})
}

func (s *MemoryStore) AppendActivity(_ context.Context, customerID string, entry domain.ActivityEntry) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.At.IsZero() {
			entry.At = s.now().UTC()
		}
		c.Activity = append(c.Activity, entry)
		return nil
	})
}

func (s *MemoryStore) AppendNotification(_ context.Context, customerID string, notification domain.Notification) (*domain.Customer, error) {
	return s.mutate(customerID, func(c *domain.Customer) error {
		if notification.ID == "" {
			notification.ID = uuid.NewString()
		}
		if notification.SentAt.IsZero() {
			notification.SentAt = s.now().UTC()
		}
		c.Notifications = append(c.Notifications, notification)
		return nil
	})
}

func (s *MemoryStore) mutate(id string, apply func(*domain.Customer) error) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := apply(customer); err != nil {
		return nil, err
	}
	customer.UpdatedAt = s.now().UTC()
	return customer.Clone(), nil
}

func matches(c *domain.Customer, needle string) bool {
	haystacks := []string{c.Email, c.FirstName, c.LastName, c.Phone}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
