package port

import (
	"context"

	"customerSyncWs/internal/modules/customers/domain"
)

// Store is the persistent-store collaborator. Implementations surface
// domain.ErrNotFound and domain.ErrConflict; every mutation returns the
// post-mutation aggregate so callers can refresh the cache without a
// second read.
type Store interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, update CustomerUpdate) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	SetCustomerActive(ctx context.Context, id string, active bool) (*domain.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]*domain.Customer, error)

	AddAddress(ctx context.Context, customerID string, address domain.Address) (*domain.Customer, error)
	UpdateAddress(ctx context.Context, customerID string, address domain.Address) (*domain.Customer, error)
	DeleteAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error)

	AdjustLoyaltyPoints(ctx context.Context, customerID string, delta int) (*domain.Customer, error)
	AppendActivity(ctx context.Context, customerID string, entry domain.ActivityEntry) (*domain.Customer, error)
	AppendNotification(ctx context.Context, customerID string, notification domain.Notification) (*domain.Customer, error)
}

// CustomerUpdate carries the mutable profile fields; nil pointers leave the
// stored value untouched.
type CustomerUpdate struct {
	Email       *string
	Phone       *string
	FirstName   *string
	LastName    *string
	Preferences map[string]string
}
