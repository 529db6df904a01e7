// Package relationship tracks per-sender trust, familiarity, and friendship.
package relationship

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/easeaico/project-kokoro/internal/errs"
	"github.com/easeaico/project-kokoro/internal/types"
)

const maxUpdateAttempts = 5

// RelationshipRepo defines the storage surface the tracker needs.
type RelationshipRepo interface {
	GetOrCreate(ctx context.Context, userID string, privileged bool, trustSeed float64) (types.UserRelationship, error)
	Update(ctx context.Context, rel types.UserRelationship, expectedTotal int) (bool, error)
}

// Tracker manages relationship rows.
type Tracker struct {
	repo      RelationshipRepo
	trustSeed float64
}

// NewTracker returns a relationship tracker. trustSeed is the initial trust
// for privileged senders; it must exceed 0.8.
func NewTracker(repo RelationshipRepo, trustSeed float64) *Tracker {
	if trustSeed <= 0.8 {
		trustSeed = 0.85
	}
	return &Tracker{repo: repo, trustSeed: trustSeed}
}

// Get returns the relationship for a sender, lazily creating it. Privileged
// senders are seeded as admins with a high trust score.
func (t *Tracker) Get(ctx context.Context, senderID string, privileged bool) (types.UserRelationship, error) {
	return t.repo.GetOrCreate(ctx, senderID, privileged, t.trustSeed)
}

// Update applies score deltas clamped to [0,1], counts the interaction, and
// recomputes the bot's feeling toward the sender. Concurrent updates for the
// same sender are serialized by an optimistic retry loop.
func (t *Tracker) Update(ctx context.Context, senderID string, trustDelta, friendshipDelta, familiarityDelta float64, positive bool, interactionType string) (types.UserRelationship, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := t.repo.GetOrCreate(ctx, senderID, false, t.trustSeed)
		if err != nil {
			return types.UserRelationship{}, err
		}

		next := current
		next.TrustScore = types.ClampScore(current.TrustScore + trustDelta)
		next.FriendshipLevel = types.ClampScore(current.FriendshipLevel + friendshipDelta)
		next.Familiarity = types.ClampScore(current.Familiarity + familiarityDelta)
		next.TotalInteractions = current.TotalInteractions + 1
		if positive {
			next.PositiveInteractions = current.PositiveInteractions + 1
		}
		if interactionType != "" && next.RelationshipType != "admin" {
			next.RelationshipType = interactionType
		}
		next.BotFeeling = deriveFeeling(next.TrustScore, next.FriendshipLevel, next.Familiarity)

		ok, err := t.repo.Update(ctx, next, current.TotalInteractions)
		if err != nil {
			return types.UserRelationship{}, err
		}
		if ok {
			return next, nil
		}
	}
	return types.UserRelationship{}, goerr.Wrap(errs.ErrUnavailable, "relationship update kept conflicting",
		goerr.V("user_id", senderID), goerr.V("attempts", maxUpdateAttempts))
}

// deriveFeeling maps the blended scores to a feeling label.
func deriveFeeling(trust, friendship, familiarity float64) string {
	blend := 0.45*trust + 0.35*friendship + 0.2*familiarity
	switch {
	case blend < 0.1:
		return "distant"
	case blend < 0.25:
		return "wary"
	case blend < 0.45:
		return "neutral"
	case blend < 0.65:
		return "friendly"
	case blend < 0.85:
		return "close"
	default:
		return "trusted"
	}
}
