package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-booking-engine/internal/domain/entity"
)

// MemoryReservationCoordinator keeps claims in process memory. It suits a
// single-instance deployment and tests.
//
// Lock ordering: a call takes exactly one provider mutex, held only for the
// check-then-write, so calls never wait on each other for long and cannot
// deadlock.
type MemoryReservationCoordinator struct {
	log *logrus.Logger
	ttl time.Duration

	// Per-provider state, map[uuid.UUID]*providerClaims
	providers sync.Map

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// providerClaims holds every live claim of one provider
type providerClaims struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
	claims   map[entity.Resource][]entity.Claim
	removed  bool // set under mu once cleanup dropped it from the map
}

// NewMemoryReservationCoordinator starts a background goroutine that drops
// idle provider state. Call Stop() during graceful shutdown.
func NewMemoryReservationCoordinator(log *logrus.Logger, ttl time.Duration) *MemoryReservationCoordinator {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	c := &MemoryReservationCoordinator{
		log:      log,
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Stop is safe to call multiple times.
func (c *MemoryReservationCoordinator) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopChan)
		c.wg.Wait()
		c.log.Info("MemoryReservationCoordinator stopped")
	}
}

func (c *MemoryReservationCoordinator) TryClaim(ctx context.Context, req entity.ClaimRequest, now time.Time) (entity.Claim, error) {
	claims, err := c.TryClaimAll(ctx, []entity.ClaimRequest{req}, now)
	if err != nil {
		return entity.Claim{}, err
	}
	return claims[0], nil
}

func (c *MemoryReservationCoordinator) TryClaimAll(ctx context.Context, reqs []entity.ClaimRequest, now time.Time) ([]entity.Claim, error) {
	if err := validateClaimRequests(reqs); err != nil {
		return nil, err
	}
	providerID := reqs[0].ProviderID
	for _, r := range reqs[1:] {
		if r.ProviderID != providerID {
			return nil, fmt.Errorf("%w: claims span more than one provider", entity.ErrValidation)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc := c.lockProvider(providerID)
	defer pc.mu.Unlock()

	for res, held := range pc.claims {
		pc.claims[res] = dropExpired(held, now)
	}

	for _, r := range reqs {
		for _, held := range pc.claims[r.Resource()] {
			if held.Slot.Overlaps(r.Slot) {
				c.log.Debugf("Claim conflict for provider %s: %s overlaps held %s", providerID, r.Slot, held.Slot)
				return nil, fmt.Errorf("%w: %s overlaps claim %s", entity.ErrConflict, r.Slot, held.ID)
			}
		}
	}

	claims := make([]entity.Claim, len(reqs))
	for i, r := range reqs {
		claims[i] = newClaim(r, c.ttl, now)
		pc.claims[claims[i].Resource] = append(pc.claims[claims[i].Resource], claims[i])
	}
	return claims, nil
}

func (c *MemoryReservationCoordinator) Release(ctx context.Context, claim entity.Claim) error {
	v, ok := c.providers.Load(claim.Resource.ProviderID)
	if !ok {
		return nil
	}
	pc := v.(*providerClaims)
	pc.mu.Lock()
	defer pc.mu.Unlock()

	held := pc.claims[claim.Resource]
	for i, h := range held {
		if h.ID == claim.ID {
			pc.claims[claim.Resource] = append(held[:i:i], held[i+1:]...)
			break
		}
	}
	if len(pc.claims[claim.Resource]) == 0 {
		delete(pc.claims, claim.Resource)
	}
	return nil
}

// lockProvider returns the locked state of a provider, creating it on first
// use. It retries when cleanup removed the state between load and lock.
func (c *MemoryReservationCoordinator) lockProvider(providerID uuid.UUID) *providerClaims {
	for {
		v, _ := c.providers.LoadOrStore(providerID, &providerClaims{claims: make(map[entity.Resource][]entity.Claim)})
		pc := v.(*providerClaims)
		pc.mu.Lock()
		if !pc.removed {
			pc.lastUsed.Store(time.Now().Unix())
			return pc
		}
		pc.mu.Unlock()
	}
}

func dropExpired(held []entity.Claim, now time.Time) []entity.Claim {
	live := held[:0]
	for _, h := range held {
		if !h.IsExpired(now) {
			live = append(live, h)
		}
	}
	return live
}

// cleanupLoop runs in background to drop idle provider state
func (c *MemoryReservationCoordinator) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(claimCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			c.log.Debug("Claim cleanup goroutine stopping")
			return
		case <-ticker.C:
			c.cleanupStale(time.Now())
		}
	}
}

// cleanupStale removes providers that have been idle past the threshold and
// hold no live claims. TryLock skips providers that are in use.
func (c *MemoryReservationCoordinator) cleanupStale(now time.Time) int {
	cutoff := now.Add(-claimStaleThreshold).Unix()
	var cleaned int

	c.providers.Range(func(key, value any) bool {
		pc, ok := value.(*providerClaims)
		if !ok {
			return true
		}
		if pc.mu.TryLock() {
			live := 0
			for res, held := range pc.claims {
				pc.claims[res] = dropExpired(held, now)
				live += len(pc.claims[res])
			}
			if live == 0 && pc.lastUsed.Load() < cutoff {
				pc.removed = true
				c.providers.Delete(key)
				cleaned++
			}
			pc.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		c.log.Debugf("Cleaned up %d idle provider claim sets", cleaned)
	}
	return cleaned
}
