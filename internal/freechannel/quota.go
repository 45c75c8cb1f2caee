package freechannel

import (
	"context"
	"fmt"

	"github.com/kazuma11121125/rt-bot/internal/platform"
)

// QuotaTracker counts managed channels on live platform state.
type QuotaTracker struct {
	platform platform.Platform
	perKind  bool
}

// NewQuotaTracker creates a tracker. With perKind the quota applies to text and voice separately.
func NewQuotaTracker(p platform.Platform, perKind bool) *QuotaTracker {
	return &QuotaTracker{platform: p, perKind: perKind}
}

// View lists and decodes the channels of a group.
func (q *QuotaTracker) View(ctx context.Context, group Group) (GroupView, error) {
	channels, err := q.platform.GroupChannels(ctx, group.GuildID, group.ID)
	if err != nil {
		return GroupView{}, fmt.Errorf("list group channels: %w", err)
	}
	return Classify(group, channels), nil
}

// Count returns the number of managed channels ownerID holds in group.
func (q *QuotaTracker) Count(ctx context.Context, group Group, ownerID string) (int, error) {
	view, err := q.View(ctx, group)
	if err != nil {
		return 0, err
	}
	return len(view.Owned(ownerID)), nil
}

// CountKind returns the number of managed channels of one kind ownerID holds in group.
func (q *QuotaTracker) CountKind(ctx context.Context, group Group, ownerID string, kind Kind) (int, error) {
	view, err := q.View(ctx, group)
	if err != nil {
		return 0, err
	}
	return len(view.Owned(ownerID, kind)), nil
}

// Admits reports whether ownerID may create one more channel of kind under quota.
func (q *QuotaTracker) Admits(ctx context.Context, group Group, ownerID string, quota int, kind Kind) (bool, error) {
	var (
		n   int
		err error
	)
	if q.perKind {
		n, err = q.CountKind(ctx, group, ownerID, kind)
	} else {
		n, err = q.Count(ctx, group, ownerID)
	}
	if err != nil {
		return false, err
	}
	return n < quota, nil
}
