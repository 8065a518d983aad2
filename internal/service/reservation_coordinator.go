package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-booking-engine/internal/domain/entity"
)

// ReservationCoordinator hands out short-lived exclusive claims on time slots.
// It is the only synchronisation point of the booking flow: two claims whose
// slots overlap on the same resource never coexist, and a claim attempt never
// waits. A collision returns entity.ErrConflict.
type ReservationCoordinator interface {
	// TryClaim claims one slot.
	TryClaim(ctx context.Context, req entity.ClaimRequest, now time.Time) (entity.Claim, error)

	// TryClaimAll claims every slot or none. Requests in the same call do not
	// conflict with each other, so a reschedule may claim overlapping old and
	// new slots.
	TryClaimAll(ctx context.Context, reqs []entity.ClaimRequest, now time.Time) ([]entity.Claim, error)

	// Release drops a claim. Releasing an unknown or expired claim is a no-op.
	Release(ctx context.Context, claim entity.Claim) error
}

const (
	// DefaultClaimTTL applies when a coordinator is built with a zero TTL.
	DefaultClaimTTL = 5 * time.Minute

	// Key prefix for claim sorted sets
	RedisClaimKeyPrefix = "claims:"

	// Timeout for individual Redis claim operations
	redisClaimTimeout = 3 * time.Second

	// Interval for cleaning up idle per-provider state
	claimCleanupInterval = 10 * time.Minute

	// How long provider state must be unused before cleanup
	claimStaleThreshold = 10 * time.Minute
)

func newClaim(req entity.ClaimRequest, ttl time.Duration, now time.Time) entity.Claim {
	return entity.Claim{
		ID:        uuid.New(),
		Resource:  req.Resource(),
		Slot:      req.Slot,
		ExpiresAt: now.Add(ttl),
	}
}

func validateClaimRequests(reqs []entity.ClaimRequest) error {
	if len(reqs) == 0 {
		return fmt.Errorf("%w: no slots to claim", entity.ErrValidation)
	}
	for _, r := range reqs {
		if r.ProviderID == uuid.Nil {
			return fmt.Errorf("%w: claim without provider", entity.ErrValidation)
		}
		if r.Slot.IsZero() {
			return fmt.Errorf("%w: claim without slot", entity.ErrValidation)
		}
	}
	return nil
}

// ReleaseAll releases every claim and returns the first error. It keeps going
// after a failure so that one bad release does not strand the others.
func ReleaseAll(ctx context.Context, c ReservationCoordinator, claims []entity.Claim) error {
	var first error
	for _, claim := range claims {
		if err := c.Release(ctx, claim); err != nil && first == nil {
			first = err
		}
	}
	return first
}
