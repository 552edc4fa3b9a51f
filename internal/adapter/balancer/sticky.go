package balancer

import (
	"crypto/md5" //nolint:gosec // used for deterministic bucketing, not security
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// StickyManager binds a client key to whichever endpoint it was last routed
// to, for up to TTL, falling back to an MD5-mod-size pick over the eligible
// list the first time a key is seen or once its entry expires (spec.md 4.F).
type StickyManager struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]domain.StickyEntry
}

func NewStickyManager(ttl time.Duration) *StickyManager {
	if ttl <= 0 {
		ttl = domain.DefaultStickySessionTTL
	}
	return &StickyManager{
		ttl:     ttl,
		entries: make(map[string]domain.StickyEntry),
	}
}

// Resolve returns the endpoint bound to clientKey, computing and storing a
// new binding if none exists, the entry expired, or the bound endpoint is no
// longer eligible.
func (s *StickyManager) Resolve(clientKey string, eligible []*domain.Endpoint, now time.Time) *domain.Endpoint {
	if len(eligible) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[clientKey]; ok && !entry.Expired(now) {
		if endpoint := findByURL(eligible, entry.EndpointID); endpoint != nil {
			return endpoint
		}
	}

	endpoint := hashPick(clientKey, eligible)
	s.entries[clientKey] = domain.StickyEntry{
		Key:        clientKey,
		EndpointID: endpoint.URLString,
		ExpiresAt:  now.Add(s.ttl),
	}
	return endpoint
}

// Cleanup drops every entry that has expired as of now.
func (s *StickyManager) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
		}
	}
}

func findByURL(eligible []*domain.Endpoint, urlString string) *domain.Endpoint {
	for _, endpoint := range eligible {
		if endpoint.URLString == urlString {
			return endpoint
		}
	}
	return nil
}

func hashPick(key string, eligible []*domain.Endpoint) *domain.Endpoint {
	if key == "" {
		key = "default"
	}
	sum := md5.Sum([]byte(key)) //nolint:gosec
	var hash uint32
	for _, b := range sum[:4] {
		hash = hash<<8 | uint32(b)
	}
	index := int(hash) % len(eligible)
	if index < 0 {
		index += len(eligible)
	}
	return eligible[index]
}
