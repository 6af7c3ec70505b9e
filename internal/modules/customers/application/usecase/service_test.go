package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"customerSyncWs/internal/modules/customers/application/port"
	"customerSyncWs/internal/modules/customers/domain"
	"customerSyncWs/internal/modules/customers/infrastructure"
	"customerSyncWs/internal/platform/cache"
)

type recordingCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    []string
	deletes []string
	setDone chan string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]byte), setDone: make(chan string, 16)}
}

func (c *recordingCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *recordingCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) {
	c.mu.Lock()
	c.entries[key] = payload
	c.sets = append(c.sets, key)
	c.mu.Unlock()
	select {
	case c.setDone <- key:
	default:
	}
}

func (c *recordingCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
}

func (c *recordingCache) setKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sets...)
}

func (c *recordingCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) all() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

// countingStore wraps the memory store to observe store round trips.
type countingStore struct {
	*infrastructure.MemoryStore
	mu       sync.Mutex
	gets     int
	searches int
}

func (s *countingStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.MemoryStore.GetCustomer(ctx, id)
}

func (s *countingStore) SearchCustomers(ctx context.Context, query string) ([]*domain.Customer, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	return s.MemoryStore.SearchCustomers(ctx, query)
}

// failingStore aborts every mutation; untouched methods are never called.
type failingStore struct {
	port.Store
	err error
}

func (s *failingStore) CreateCustomer(context.Context, *domain.Customer) error { return s.err }

func newTestService(t *testing.T) (*Service, *countingStore, *recordingCache, *recordingSink) {
	t.Helper()
	store := &countingStore{MemoryStore: infrastructure.NewMemoryStore()}
	cacheStore := newRecordingCache()
	sink := &recordingSink{}
	return NewService(store, cacheStore, sink, time.Minute), store, cacheStore, sink
}

func cachedCustomer(t *testing.T, c *recordingCache, id string) *domain.Customer {
	t.Helper()
	data, ok := c.Get(context.Background(), cache.CustomerKey(id))
	if !ok {
		t.Fatalf("expected cache entry for %s", id)
	}
	var customer domain.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		t.Fatalf("unmarshal cached customer: %v", err)
	}
	return &customer
}

func waitForSet(t *testing.T, c *recordingCache, key string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-c.setDone:
			if got == key {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for cache set on %s", key)
		}
	}
}

func TestCreateCustomerWritesThroughAndPublishes(t *testing.T) {
	svc, _, cacheStore, sink := newTestService(t)

	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{
		Email:     "a@x.com",
		FirstName: "Ana",
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cached := cachedCustomer(t, cacheStore, created.ID)
	if cached.Email != "a@x.com" {
		t.Fatalf("cached payload stale: %+v", cached)
	}

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	e := events[0]
	if e.Type != domain.EventCustomerCreated || e.EntityID != created.ID {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Meta.RequestID != "req-1" {
		t.Fatalf("request id not propagated: %+v", e.Meta)
	}
	if e.Topic() != "CUSTOMER_CREATED_"+created.ID {
		t.Fatalf("unexpected topic: %s", e.Topic())
	}
}

func TestUpdateCustomerRefreshesCacheWithPostMutationPayload(t *testing.T) {
	svc, _, cacheStore, _ := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com", FirstName: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Lucía"
	if _, err := svc.UpdateCustomer(context.Background(), created.ID, UpdateCustomerInput{FirstName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if cached := cachedCustomer(t, cacheStore, created.ID); cached.FirstName != "Lucía" {
		t.Fatalf("cache holds stale payload after mutation: %+v", cached)
	}
}

func TestStoreFailureAbortsSideEffects(t *testing.T) {
	cacheStore := newRecordingCache()
	sink := &recordingSink{}
	svc := NewService(&failingStore{err: domain.ErrConflict}, cacheStore, sink, time.Minute)

	_, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(cacheStore.setKeys()) != 0 {
		t.Fatalf("cache written despite store failure: %v", cacheStore.setKeys())
	}
	if len(sink.all()) != 0 {
		t.Fatal("event published despite store failure")
	}
}

func TestFanoutFailureDoesNotFailMutation(t *testing.T) {
	store := &countingStore{MemoryStore: infrastructure.NewMemoryStore()}
	sink := &recordingSink{err: errors.New("broker down")}
	svc := NewService(store, newRecordingCache(), sink, time.Minute)

	if _, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"}); err != nil {
		t.Fatalf("mutation should survive fanout failure: %v", err)
	}
}

func TestCacheOutageDoesNotSurface(t *testing.T) {
	store := &countingStore{MemoryStore: infrastructure.NewMemoryStore()}
	svc := NewService(store, cache.Noop{}, &recordingSink{}, time.Minute)

	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create with cache down: %v", err)
	}
	got, err := svc.GetCustomer(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("read with cache down: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected customer: %+v", got)
	}
}

func TestAddAddressRefreshesAggregateRootOnly(t *testing.T) {
	svc, _, cacheStore, sink := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddAddress(context.Background(), created.ID, AddressInput{City: "Lima", Primary: true}); err != nil {
		t.Fatalf("add address: %v", err)
	}

	for _, key := range cacheStore.setKeys() {
		if strings.HasPrefix(key, "address") {
			t.Fatalf("sub-entity cache key written: %s", key)
		}
	}
	cached := cachedCustomer(t, cacheStore, created.ID)
	if len(cached.Addresses) != 1 || cached.Addresses[0].City != "Lima" {
		t.Fatalf("aggregate root entry not refreshed: %+v", cached)
	}

	events := sink.all()
	last := events[len(events)-1]
	if last.Type != domain.EventAddressAdded || last.EntityID != created.ID {
		t.Fatalf("address event must target the owning aggregate: %+v", last)
	}
}

func TestGetCustomerMissFallsBackAndPopulates(t *testing.T) {
	svc, store, cacheStore, _ := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := cache.CustomerKey(created.ID)
	cacheStore.drop(key)

	got, err := svc.GetCustomer(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected customer: %+v", got)
	}
	if store.gets != 1 {
		t.Fatalf("expected one store read, got %d", store.gets)
	}
	waitForSet(t, cacheStore, key)
}

func TestGetCustomerHitSkipsStore(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The create write-through already populated the entry.
	if _, err := svc.GetCustomer(context.Background(), created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.gets != 0 {
		t.Fatalf("expected cached read, store hit %d times", store.gets)
	}
}

func TestDeleteCustomerDropsCacheAndPublishes(t *testing.T) {
	svc, _, cacheStore, sink := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteCustomer(context.Background(), created.ID, "req-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := cacheStore.Get(context.Background(), cache.CustomerKey(created.ID)); ok {
		t.Fatal("cache entry should be gone after delete")
	}

	events := sink.all()
	last := events[len(events)-1]
	if last.Type != domain.EventCustomerDeleted {
		t.Fatalf("unexpected event: %+v", last)
	}
	if last.Meta.RequestID != "req-9" {
		t.Fatalf("request id lost: %+v", last.Meta)
	}
}

func TestSetCustomerActiveEmitsToggleEvents(t *testing.T) {
	svc, _, _, sink := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetCustomerActive(context.Background(), created.ID, false, ""); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.SetCustomerActive(context.Background(), created.ID, true, ""); err != nil {
		t.Fatalf("activate: %v", err)
	}

	events := sink.all()
	if events[len(events)-2].Type != domain.EventCustomerDeactivated {
		t.Fatalf("expected deactivated event, got %+v", events[len(events)-2])
	}
	if events[len(events)-1].Type != domain.EventCustomerActivated {
		t.Fatalf("expected activated event, got %+v", events[len(events)-1])
	}
}

func TestSearchCustomersCachesResultSet(t *testing.T) {
	svc, store, cacheStore, _ := newTestService(t)
	if _, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "maria@x.com", FirstName: "Maria"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.SearchCustomers(context.Background(), "maria")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("unexpected results: %+v", first)
	}
	waitForSet(t, cacheStore, cache.SearchKey("maria"))

	second, err := svc.SearchCustomers(context.Background(), "maria")
	if err != nil {
		t.Fatalf("cached search: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("unexpected cached results: %+v", second)
	}
	if store.searches != 1 {
		t.Fatalf("expected one store search, got %d", store.searches)
	}
}

func TestLoyaltyEventCarriesDeltaAndTotal(t *testing.T) {
	svc, _, _, sink := newTestService(t)
	created, err := svc.CreateCustomer(context.Background(), CreateCustomerInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AdjustLoyaltyPoints(context.Background(), created.ID, 25, ""); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	events := sink.all()
	last := events[len(events)-1]
	payload, ok := last.Payload.(domain.LoyaltyPayload)
	if !ok {
		t.Fatalf("unexpected payload type: %T", last.Payload)
	}
	if payload.Delta != 25 || payload.Points != 25 {
		t.Fatalf("unexpected loyalty payload: %+v", payload)
	}
}
