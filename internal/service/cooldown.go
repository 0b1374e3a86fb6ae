package service

import "time"

// CooldownPolicy decides whether a member may take another key from a guild pool.
type CooldownPolicy struct {
	wait time.Duration
}

func NewCooldownPolicy(wait time.Duration) CooldownPolicy {
	if wait < 0 {
		wait = 0
	}
	return CooldownPolicy{wait: wait}
}

func (p CooldownPolicy) Wait() time.Duration { return p.wait }

// Allowed reports whether at least the wait period has passed since lastClaimAt.
// A member who never claimed is always allowed.
func (p CooldownPolicy) Allowed(lastClaimAt *time.Time, now time.Time) bool {
	if lastClaimAt == nil {
		return true
	}
	return now.Sub(*lastClaimAt) >= p.wait
}

// Remaining is how long the member still has to wait; zero when Allowed.
func (p CooldownPolicy) Remaining(lastClaimAt *time.Time, now time.Time) time.Duration {
	if p.Allowed(lastClaimAt, now) {
		return 0
	}
	return p.wait - now.Sub(*lastClaimAt)
}
