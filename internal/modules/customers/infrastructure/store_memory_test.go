package infrastructure

import (
	"context"
	"errors"
	"testing"

	"customerSyncWs/internal/modules/customers/application/port"
	"customerSyncWs/internal/modules/customers/domain"
)

func seedCustomer(t *testing.T, s *MemoryStore, id, email string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{ID: id, Email: email, FirstName: "Ana", Active: true}
	if err := s.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func TestCreateCustomerRejectsDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	err := s.CreateCustomer(context.Background(), &domain.Customer{ID: "c2", Email: "A@X.com"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetCustomer(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetCustomerByEmailIsCaseInsensitive(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	got, err := s.GetCustomerByEmail(context.Background(), " A@X.COM ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "c1" {
		t.Fatalf("unexpected customer: %s", got.ID)
	}
}

func TestUpdateCustomerAppliesPartialFields(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	name := "Lucía"
	updated, err := s.UpdateCustomer(context.Background(), "c1", port.CustomerUpdate{FirstName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Lucía" {
		t.Fatalf("first name not applied: %s", updated.FirstName)
	}
	if updated.Email != "a@x.com" {
		t.Fatalf("email should be untouched: %s", updated.Email)
	}
}

func TestUpdateCustomerRejectsTakenEmail(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")
	seedCustomer(t, s, "c2", "b@x.com")

	taken := "a@x.com"
	if _, err := s.UpdateCustomer(context.Background(), "c2", port.CustomerUpdate{Email: &taken}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteCustomerFreesUniqueKeys(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	if err := s.DeleteCustomer(context.Background(), "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.CreateCustomer(context.Background(), &domain.Customer{ID: "c2", Email: "a@x.com"}); err != nil {
		t.Fatalf("email should be reusable after delete: %v", err)
	}
}

func TestAddAddressAssignsIDAndSinglePrimary(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	first, err := s.AddAddress(context.Background(), "c1", domain.Address{City: "Lima", Primary: true})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if first.Addresses[0].ID == "" {
		t.Fatal("expected generated address id")
	}

	second, err := s.AddAddress(context.Background(), "c1", domain.Address{City: "Quito", Primary: true})
	if err != nil {
		t.Fatalf("add second address: %v", err)
	}
	primaries := 0
	for _, a := range second.Addresses {
		if a.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary address, got %d", primaries)
	}
}

func TestDeleteAddressNotFound(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	if _, err := s.DeleteAddress(context.Background(), "c1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjustLoyaltyPointsFloorsAtZero(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "a@x.com")

	updated, err := s.AdjustLoyaltyPoints(context.Background(), "c1", -50)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.LoyaltyPoints != 0 {
		t.Fatalf("expected floor at zero, got %d", updated.LoyaltyPoints)
	}
}

func TestSearchCustomersMatchesNameAndEmail(t *testing.T) {
	s := NewMemoryStore()
	seedCustomer(t, s, "c1", "maria@x.com")
	seedCustomer(t, s, "c2", "b@x.com")

	results, err := s.SearchCustomers(context.Background(), "maria")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("unexpected results: %+v", results)
	}
}
