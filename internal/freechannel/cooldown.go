package freechannel

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Action is a cooldown-gated command kind.
type Action string

const (
	ActionRegister   Action = "register"
	ActionDeregister Action = "deregister"
	ActionRename     Action = "rename"
	ActionRemove     Action = "remove"
)

type cooldownKey struct {
	userID string
	action Action
}

// Cooldowns is a per-(user, action) cooldown registry. Each key owns a
// one-token limiter refilled once per action duration.
type Cooldowns struct {
	mu        sync.Mutex
	durations map[Action]time.Duration
	limiters  map[cooldownKey]*rate.Limiter
	now       func() time.Time
}

// NewCooldowns creates a registry. Actions without a positive duration are never limited.
func NewCooldowns(durations map[Action]time.Duration) *Cooldowns {
	copied := make(map[Action]time.Duration, len(durations))
	for action, d := range durations {
		copied[action] = d
	}
	return &Cooldowns{
		durations: copied,
		limiters:  map[cooldownKey]*rate.Limiter{},
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (c *Cooldowns) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Try records an invocation of action by userID, or returns a *CooldownError
// with the remaining wait when the previous one is too recent.
func (c *Cooldowns) Try(userID string, action Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.durations[action]
	if d <= 0 {
		return nil
	}
	now := c.now()
	key := cooldownKey{userID: userID, action: action}
	lim, ok := c.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(d), 1)
		c.limiters[key] = lim
	}
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &CooldownError{Action: action, Remaining: delay}
	}
	return nil
}

// Prune drops keys whose cooldown has fully elapsed and returns how many were removed.
func (c *Cooldowns) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, lim := range c.limiters {
		if lim.TokensAt(now) >= 1 {
			delete(c.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}
