package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"go-booking-engine/internal/domain/entity"
)

// =============================================================================
// Lua Script
// =============================================================================

// claimSlotsScript claims one slot per key, all or nothing.
// Redis runs a script atomically, so the overlap test and the write cannot
// interleave with another claim. The client uses EVALSHA after the first call.
//
// KEYS[i]  claim set of the i-th request (sorted set, score = slot start ms)
// ARGV[1]  now in unix ms
// ARGV[2+4(i-1)..] member, start ms, end ms, ttl ms of the i-th request
//
// Members are "claimID|start|end|expires". Expired members are purged first.
// Returns {1, 0} on success or {0, i} when request i collides.
var claimSlotsScript = redis.NewScript(`
	local now = tonumber(ARGV[1])

	for i = 1, #KEYS do
		for _, m in ipairs(redis.call('ZRANGE', KEYS[i], 0, -1)) do
			local exp = tonumber(string.match(m, '|(%d+)$'))
			if exp ~= nil and exp <= now then
				redis.call('ZREM', KEYS[i], m)
			end
		end
	end

	for i = 1, #KEYS do
		local base = 2 + (i - 1) * 4
		local s = tonumber(ARGV[base + 1])
		local e = tonumber(ARGV[base + 2])
		for _, m in ipairs(redis.call('ZRANGEBYSCORE', KEYS[i], '-inf', '(' .. ARGV[base + 2])) do
			local ms, me = string.match(m, '^[^|]+|(-?%d+)|(-?%d+)|')
			if ms ~= nil and tonumber(ms) < e and s < tonumber(me) then
				return {0, i}
			end
		end
	end

	for i = 1, #KEYS do
		local base = 2 + (i - 1) * 4
		redis.call('ZADD', KEYS[i], ARGV[base + 1], ARGV[base])
		if redis.call('PTTL', KEYS[i]) < tonumber(ARGV[base + 3]) then
			redis.call('PEXPIRE', KEYS[i], ARGV[base + 3])
		end
	end

	return {1, 0}
`)

// =============================================================================
// Types
// =============================================================================

// RedisReservationCoordinator keeps claims in one sorted set per provider and
// staff member. It is safe across any number of application instances.
//
// Key layout: claims:{providerID}:staffID. The provider is a hash tag so that
// every key a reschedule touches lives in the same Redis Cluster slot.
type RedisReservationCoordinator struct {
	redisClient redis.UniversalClient
	log         *logrus.Logger
	ttl         time.Duration
}

// =============================================================================
// Constructor
// =============================================================================

func NewRedisReservationCoordinator(redisClient redis.UniversalClient, log *logrus.Logger, ttl time.Duration) *RedisReservationCoordinator {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisReservationCoordinator{redisClient: redisClient, log: log, ttl: ttl}
}

// =============================================================================
// Public Methods
// =============================================================================

func (c *RedisReservationCoordinator) TryClaim(ctx context.Context, req entity.ClaimRequest, now time.Time) (entity.Claim, error) {
	claims, err := c.TryClaimAll(ctx, []entity.ClaimRequest{req}, now)
	if err != nil {
		return entity.Claim{}, err
	}
	return claims[0], nil
}

func (c *RedisReservationCoordinator) TryClaimAll(ctx context.Context, reqs []entity.ClaimRequest, now time.Time) ([]entity.Claim, error) {
	if err := validateClaimRequests(reqs); err != nil {
		return nil, err
	}

	claims := make([]entity.Claim, len(reqs))
	keys := make([]string, len(reqs))
	args := make([]interface{}, 0, 1+4*len(reqs))
	args = append(args, now.UnixMilli())

	for i, req := range reqs {
		claims[i] = newClaim(req, c.ttl, now)
		keys[i] = claimKey(claims[i].Resource)
		args = append(args,
			claimMember(claims[i]),
			claims[i].Slot.Start().UnixMilli(),
			claims[i].Slot.End().UnixMilli(),
			c.ttl.Milliseconds(),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, redisClaimTimeout)
	defer cancel()

	result, err := claimSlotsScript.Run(ctx, c.redisClient, keys, args...).Int64Slice()
	if err != nil {
		c.log.Warnf("Failed Lua script claimSlots for %s: %+v", keys[0], err)
		return nil, fmt.Errorf("lua claim_slots for %s: %w", keys[0], err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("lua claim_slots for %s: unexpected reply %v", keys[0], result)
	}

	if result[0] == 0 {
		idx := int(result[1]) - 1
		if idx < 0 || idx >= len(reqs) {
			idx = 0
		}
		c.log.Debugf("Claim conflict on %s for %s", keys[idx], reqs[idx].Slot)
		return nil, fmt.Errorf("%w: %s is held on %s", entity.ErrConflict, reqs[idx].Slot, keys[idx])
	}

	c.log.Debugf("Claimed %d slot(s) on %s", len(claims), keys[0])
	return claims, nil
}

func (c *RedisReservationCoordinator) Release(ctx context.Context, claim entity.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, redisClaimTimeout)
	defer cancel()

	key := claimKey(claim.Resource)
	if err := c.redisClient.ZRem(ctx, key, claimMember(claim)).Err(); err != nil {
		c.log.Warnf("Failed to release claim %s on %s: %+v", claim.ID, key, err)
		return fmt.Errorf("release claim %s: %w", claim.ID, err)
	}
	c.log.Debugf("Released claim %s on %s", claim.ID, key)
	return nil
}

// =============================================================================
// Private Helper Methods
// =============================================================================

func claimKey(r entity.Resource) string {
	staff := "any"
	if sp := r.StaffPtr(); sp != nil {
		staff = sp.String()
	}
	return fmt.Sprintf("%s{%s}:%s", RedisClaimKeyPrefix, r.ProviderID, staff)
}

func claimMember(c entity.Claim) string {
	return strings.Join([]string{
		c.ID.String(),
		strconv.FormatInt(c.Slot.Start().UnixMilli(), 10),
		strconv.FormatInt(c.Slot.End().UnixMilli(), 10),
		strconv.FormatInt(c.ExpiresAt.UnixMilli(), 10),
	}, "|")
}
