package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Cache keys are namespaced per entity kind; the customer aggregate root is
// the only granularity for customer data, sub-entities never get their own
// key.
const (
	customerKeyPrefix = "customer:"
	emailKeyPrefix    = "customer:email:"
	searchKeyPrefix   = "customers:search:"
)

// CustomerKey returns the cache key for a customer aggregate.
func CustomerKey(id string) string {
	return customerKeyPrefix + strings.TrimSpace(id)
}

// EmailKey returns the lookup key mapping a normalized email to a customer id.
func EmailKey(email string) string {
	return emailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// SearchKey returns the cache key for a search-result set. The query is
// hashed so arbitrary input stays within key length and charset limits.
func SearchKey(query string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%s%x", searchKeyPrefix, h.Sum64())
}
