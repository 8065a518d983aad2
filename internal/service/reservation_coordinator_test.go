package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-booking-engine/internal/domain/entity"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var base = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func mustSlot(t *testing.T, startMin, endMin int) entity.TimeSlot {
	t.Helper()
	s, err := entity.NewTimeSlot(base.Add(time.Duration(startMin)*time.Minute), base.Add(time.Duration(endMin)*time.Minute))
	require.NoError(t, err)
	return s
}

type coordinatorFactory func(t *testing.T, ttl time.Duration) ReservationCoordinator

func coordinators() map[string]coordinatorFactory {
	return map[string]coordinatorFactory{
		"memory": func(t *testing.T, ttl time.Duration) ReservationCoordinator {
			c := NewMemoryReservationCoordinator(newTestLogger(), ttl)
			t.Cleanup(c.Stop)
			return c
		},
		"redis": func(t *testing.T, ttl time.Duration) ReservationCoordinator {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisReservationCoordinator(client, newTestLogger(), ttl)
		},
	}
}

func forEachCoordinator(t *testing.T, fn func(t *testing.T, newC coordinatorFactory)) {
	for name, factory := range coordinators() {
		t.Run(name, func(t *testing.T) { fn(t, factory) })
	}
}

func TestReservationCoordinator_OverlappingClaimsConflict(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		provider, staff := uuid.New(), uuid.New()

		first, err := c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 120, 150)}, base)
		require.NoError(t, err)
		assert.Equal(t, base.Add(time.Minute), first.ExpiresAt)

		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 135, 165)}, base)
		assert.ErrorIs(t, err, entity.ErrConflict)

		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 150, 180)}, base)
		assert.NoError(t, err, "back-to-back slots do not overlap")

		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 90, 120)}, base)
		assert.NoError(t, err)
	})
}

func TestReservationCoordinator_ResourcesAreIndependent(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		provider, alice, bob := uuid.New(), uuid.New(), uuid.New()
		s := mustSlot(t, 120, 150)

		_, err := c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &alice, Slot: s}, base)
		require.NoError(t, err)
		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &bob, Slot: s}, base)
		assert.NoError(t, err, "different staff members never conflict")
		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, Slot: s}, base)
		assert.NoError(t, err, "the provider-wide resource is separate")
		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: uuid.New(), StaffID: &alice, Slot: s}, base)
		assert.NoError(t, err)
	})
}

func TestReservationCoordinator_ExpiredClaimsStopBlocking(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, 5*time.Minute)
		ctx := context.Background()
		req := entity.ClaimRequest{ProviderID: uuid.New(), Slot: mustSlot(t, 60, 90)}

		_, err := c.TryClaim(ctx, req, base)
		require.NoError(t, err)

		_, err = c.TryClaim(ctx, req, base.Add(5*time.Minute-time.Second))
		assert.ErrorIs(t, err, entity.ErrConflict)

		_, err = c.TryClaim(ctx, req, base.Add(5*time.Minute))
		assert.NoError(t, err, "a claim is expired at its expiry instant")
	})
}

func TestReservationCoordinator_ReleaseFreesSlot(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		req := entity.ClaimRequest{ProviderID: uuid.New(), Slot: mustSlot(t, 60, 90)}

		claim, err := c.TryClaim(ctx, req, base)
		require.NoError(t, err)
		require.NoError(t, c.Release(ctx, claim))
		require.NoError(t, c.Release(ctx, claim), "release is idempotent")

		_, err = c.TryClaim(ctx, req, base)
		assert.NoError(t, err)
	})
}

func TestReservationCoordinator_TryClaimAllIsAllOrNothing(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		provider, staff := uuid.New(), uuid.New()
		oldSlot, newSlot := mustSlot(t, 60, 90), mustSlot(t, 180, 210)

		// Someone else holds the new slot.
		_, err := c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 195, 225)}, base)
		require.NoError(t, err)

		_, err = c.TryClaimAll(ctx, []entity.ClaimRequest{
			{ProviderID: provider, StaffID: &staff, Slot: oldSlot},
			{ProviderID: provider, StaffID: &staff, Slot: newSlot},
		}, base)
		require.ErrorIs(t, err, entity.ErrConflict)

		// The old slot was not left claimed.
		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: oldSlot}, base)
		assert.NoError(t, err)
	})
}

func TestReservationCoordinator_TryClaimAllAllowsOverlapWithinBatch(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		provider := uuid.New()

		claims, err := c.TryClaimAll(ctx, []entity.ClaimRequest{
			{ProviderID: provider, Slot: mustSlot(t, 60, 90)},
			{ProviderID: provider, Slot: mustSlot(t, 75, 105)},
		}, base)
		require.NoError(t, err)
		require.Len(t, claims, 2)
		assert.NotEqual(t, claims[0].ID, claims[1].ID)

		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, Slot: mustSlot(t, 100, 110)}, base)
		assert.ErrorIs(t, err, entity.ErrConflict)

		require.NoError(t, ReleaseAll(ctx, c, claims))
		_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, Slot: mustSlot(t, 60, 105)}, base)
		assert.NoError(t, err)
	})
}

func TestReservationCoordinator_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		ctx := context.Background()
		provider, staff := uuid.New(), uuid.New()

		const workers = 32
		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		// Every request overlaps 10:00-10:30 by at least 25 minutes.
		slots := make([]entity.TimeSlot, workers)
		for i := range slots {
			slots[i] = mustSlot(t, 120+i%5, 150+i%5)
		}

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(s entity.TimeSlot) {
				defer wg.Done()
				<-start
				_, err := c.TryClaim(ctx, entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: s}, base)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, entity.ErrConflict):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(slots[i])
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(workers-1), conflicts.Load())
	})
}

func TestReservationCoordinator_RejectsEmptyRequests(t *testing.T) {
	forEachCoordinator(t, func(t *testing.T, newC coordinatorFactory) {
		c := newC(t, time.Minute)
		_, err := c.TryClaimAll(context.Background(), nil, base)
		assert.ErrorIs(t, err, entity.ErrValidation)
		_, err = c.TryClaim(context.Background(), entity.ClaimRequest{Slot: mustSlot(t, 0, 30)}, base)
		assert.ErrorIs(t, err, entity.ErrValidation)
	})
}

func TestRedisReservationCoordinator_KeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedisReservationCoordinator(client, newTestLogger(), 2*time.Minute)

	provider, staff := uuid.New(), uuid.New()
	claim, err := c.TryClaim(context.Background(), entity.ClaimRequest{ProviderID: provider, StaffID: &staff, Slot: mustSlot(t, 0, 30)}, base)
	require.NoError(t, err)

	key := "claims:{" + provider.String() + "}:" + staff.String()
	members, err := mr.ZMembers(key)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, claimMember(claim), members[0])
	assert.Equal(t, 2*time.Minute, mr.TTL(key))

	assert.Equal(t, "claims:{"+provider.String()+"}:any", claimKey(entity.NewResource(provider, nil)))
}

func TestMemoryReservationCoordinator_CleanupDropsIdleProviders(t *testing.T) {
	c := NewMemoryReservationCoordinator(newTestLogger(), time.Minute)
	defer c.Stop()
	ctx := context.Background()

	claim, err := c.TryClaim(ctx, entity.ClaimRequest{ProviderID: uuid.New(), Slot: mustSlot(t, 0, 30)}, base)
	require.NoError(t, err)

	assert.Equal(t, 0, c.cleanupStale(time.Now()), "recently used provider stays")

	require.NoError(t, c.Release(ctx, claim))
	assert.Equal(t, 1, c.cleanupStale(time.Now().Add(claimStaleThreshold+time.Minute)))

	// The provider state is recreated on next use.
	_, err = c.TryClaim(ctx, entity.ClaimRequest{ProviderID: claim.Resource.ProviderID, Slot: mustSlot(t, 0, 30)}, base)
	assert.NoError(t, err)
}
