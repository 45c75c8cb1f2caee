package freechannel

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotInGroup       = errors.New("channel is not inside a channel group")
	ErrAlreadyHub       = errors.New("channel is already a free-channel hub")
	ErrNotAHub          = errors.New("channel is not a free-channel hub")
	ErrQuotaExceeded    = errors.New("owner has reached the channel quota")
	ErrNotFound         = errors.New("managed channel not found")
	ErrMalformedCommand = errors.New("malformed command")
	ErrCooldown         = errors.New("action is cooling down")
	ErrForbidden        = errors.New("manage channels permission required")

	// ErrNameTooLong is a malformed command whose encoded name exceeds the platform limit.
	ErrNameTooLong = fmt.Errorf("%w: channel name too long", ErrMalformedCommand)
)

// CooldownError reports how long a user has to wait before repeating an action.
type CooldownError struct {
	Action    Action
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is cooling down for %s", e.Action, e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrCooldown) match.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// Seconds returns the remaining wait rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	secs := int(e.Remaining / time.Second)
	if e.Remaining%time.Second > 0 {
		secs++
	}
	return secs
}
