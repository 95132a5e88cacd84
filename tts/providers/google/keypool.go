package google

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

// KeyState enumerates the lifecycle of one API key.
type KeyState int

const (
	KeyAvailable KeyState = iota
	KeyRateLimited
	KeyQuotaExceeded
	KeyTemporaryError
	KeyInvalid
)

func (s KeyState) String() string {
	switch s {
	case KeyAvailable:
		return "available"
	case KeyRateLimited:
		return "rate_limited"
	case KeyQuotaExceeded:
		return "quota_exceeded"
	case KeyTemporaryError:
		return "temporary_error"
	case KeyInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// tempErrorCooldown lets the current request move on to the next key
// while keeping the key usable for near-immediate subsequent requests.
const tempErrorCooldown = 5 * time.Second

// apiKey is one credential with its runtime state. The identity fields
// are immutable; state fields are guarded by the pool mutex. The
// secret value never appears in logs, only the display name.
type apiKey struct {
	index       int
	displayName string
	secret      string

	state           KeyState
	cooldownUntil   time.Time
	lastSuccessTime time.Time
}

// KeyPool rotates among a fixed-order list of API keys, cooling down
// keys that hit rate limits or quota and permanently retiring keys the
// service rejects as unauthorized. A single mutex covers all keys;
// HTTP I/O never happens under it.
type KeyPool struct {
	mu    sync.Mutex
	keys  []*apiKey
	clock clock.Clock

	rateLimitCooldown time.Duration
	quotaCooldown     time.Duration

	logger core.Logger
}

// NewKeyPool builds a pool over the resolved keys in the given order.
func NewKeyPool(keys []Key, rateLimitCooldown, quotaCooldown time.Duration, clk clock.Clock, logger core.Logger) *KeyPool {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	pool := &KeyPool{
		keys:              make([]*apiKey, 0, len(keys)),
		clock:             clk,
		rateLimitCooldown: rateLimitCooldown,
		quotaCooldown:     quotaCooldown,
		logger:            logger,
	}
	for i, k := range keys {
		pool.keys = append(pool.keys, &apiKey{
			index:       i,
			displayName: k.Name,
			secret:      k.Value,
			state:       KeyAvailable,
		})
	}
	return pool
}

// NextAvailable selects the key for the next attempt: the first key in
// index order that is Available, else the first whose cooldown has
// expired (which is reset to Available). Invalid keys are never
// returned. Reports false when every key is cooling down or retired.
func (p *KeyPool) NextAvailable() (*apiKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, k := range p.keys {
		if k.state == KeyAvailable {
			return k, true
		}
	}

	now := p.clock.Now()
	for _, k := range p.keys {
		if k.state == KeyInvalid {
			continue
		}
		if !k.cooldownUntil.After(now) {
			k.state = KeyAvailable
			k.cooldownUntil = time.Time{}
			p.logger.Info("API key cooldown expired, back in rotation", map[string]interface{}{
				"operation": "key_recovered",
				"key":       k.displayName,
			})
			return k, true
		}
	}

	return nil, false
}

// MarkRateLimited puts the key on the rate-limit cooldown.
func (p *KeyPool) MarkRateLimited(k *apiKey) {
	p.transition(k, KeyRateLimited, p.rateLimitCooldown)
}

// MarkQuotaExceeded puts the key on the quota cooldown.
func (p *KeyPool) MarkQuotaExceeded(k *apiKey) {
	p.transition(k, KeyQuotaExceeded, p.quotaCooldown)
}

// MarkTemporaryError puts the key on a short cooldown so the current
// request tries the next key but later requests can reuse this one.
func (p *KeyPool) MarkTemporaryError(k *apiKey) {
	p.transition(k, KeyTemporaryError, tempErrorCooldown)
}

// MarkInvalid retires the key permanently.
func (p *KeyPool) MarkInvalid(k *apiKey) {
	p.mu.Lock()
	k.state = KeyInvalid
	k.cooldownUntil = time.Time{}
	p.mu.Unlock()

	p.logger.Error("API key rejected as unauthorized, retiring it", map[string]interface{}{
		"operation": "key_invalid",
		"key":       k.displayName,
	})
	keyStateMetric(KeyInvalid)
}

func (p *KeyPool) transition(k *apiKey, state KeyState, cooldown time.Duration) {
	p.mu.Lock()
	k.state = state
	k.cooldownUntil = p.clock.Now().Add(cooldown)
	until := k.cooldownUntil
	p.mu.Unlock()

	p.logger.Warn("API key cooling down", map[string]interface{}{
		"operation":   "key_cooldown",
		"key":         k.displayName,
		"state":       state.String(),
		"cooldown_ms": cooldown.Milliseconds(),
		"until":       until,
	})
	keyStateMetric(state)
}

// RecordSuccess notes a successful call on the key.
func (p *KeyPool) RecordSuccess(k *apiKey) {
	p.mu.Lock()
	k.lastSuccessTime = p.clock.Now()
	p.mu.Unlock()
}

// Len returns the number of keys in the pool.
func (p *KeyPool) Len() int {
	return len(p.keys)
}

// Status aggregates the pool into a provider status: Unavailable with
// no keys, Available while any key is usable now, Degraded while every
// key is cooling down or retired.
func (p *KeyPool) Status() core.ProviderStatus {
	if len(p.keys) == 0 {
		return core.StatusUnavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	for _, k := range p.keys {
		if k.state == KeyAvailable {
			return core.StatusAvailable
		}
		if k.state != KeyInvalid && !k.cooldownUntil.After(now) {
			return core.StatusAvailable
		}
	}
	return core.StatusDegraded
}

// LastSuccess returns the most recent success across all keys, zero if
// the pool has never served a request.
func (p *KeyPool) LastSuccess() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	var last time.Time
	for _, k := range p.keys {
		if k.lastSuccessTime.After(last) {
			last = k.lastSuccessTime
		}
	}
	return last
}
