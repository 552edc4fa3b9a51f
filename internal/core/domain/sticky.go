package domain

import "time"

// DefaultStickySessionTTL matches spec.md 4.G's default of 30 minutes.
const DefaultStickySessionTTL = 30 * time.Minute

// StickyEntry binds a session key to the endpoint it was last routed to.
type StickyEntry struct {
	Key        string
	EndpointID string
	ExpiresAt  time.Time
}

func (e StickyEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
