package google

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

// ================================
// Key Pool Tests
// ================================

func testKeys(n int) []Key {
	keys := make([]Key, 0, n)
	names := []string{"GOOGLE_TTS_KEY_1", "GOOGLE_TTS_KEY_2", "GOOGLE_TTS_KEY_3"}
	values := []string{"k1", "k2", "k3"}
	for i := 0; i < n; i++ {
		keys = append(keys, Key{Name: names[i], Value: values[i]})
	}
	return keys
}

func newTestPool(t *testing.T, n int) (*KeyPool, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	pool := NewKeyPool(testKeys(n), time.Hour, 24*time.Hour, clk, nil)
	return pool, clk
}

// TestNextAvailablePrefersFirstAvailable verifies index-order
// selection among available keys.
func TestNextAvailablePrefersFirstAvailable(t *testing.T) {
	pool, _ := newTestPool(t, 3)

	key, ok := pool.NextAvailable()
	if !ok {
		t.Fatal("Expected an available key")
	}
	if key.index != 0 || key.displayName != "GOOGLE_TTS_KEY_1" {
		t.Errorf("Got key %d (%s), want index 0", key.index, key.displayName)
	}

	pool.MarkRateLimited(key)
	key, ok = pool.NextAvailable()
	if !ok || key.index != 1 {
		t.Errorf("After marking key 0, want key 1, got ok=%v index=%d", ok, key.index)
	}
}

// TestRateLimitCooldownRevivesKey verifies that a rate-limited key
// returns to rotation once its cooldown elapses, reset to Available.
func TestRateLimitCooldownRevivesKey(t *testing.T) {
	pool, clk := newTestPool(t, 1)

	key, _ := pool.NextAvailable()
	pool.MarkRateLimited(key)

	if _, ok := pool.NextAvailable(); ok {
		t.Fatal("Key should be unavailable during cooldown")
	}

	clk.Add(time.Hour - time.Second)
	if _, ok := pool.NextAvailable(); ok {
		t.Fatal("Key should still be cooling down just before the deadline")
	}

	clk.Add(2 * time.Second)
	revived, ok := pool.NextAvailable()
	if !ok {
		t.Fatal("Key should be available after the cooldown")
	}
	if revived.state != KeyAvailable {
		t.Errorf("Revived key state = %v, want Available", revived.state)
	}
	if !revived.cooldownUntil.IsZero() {
		t.Errorf("Revived key cooldownUntil = %v, want cleared", revived.cooldownUntil)
	}
}

// TestQuotaCooldownIsLonger verifies the quota cooldown uses its own
// configured duration.
func TestQuotaCooldownIsLonger(t *testing.T) {
	pool, clk := newTestPool(t, 1)

	key, _ := pool.NextAvailable()
	pool.MarkQuotaExceeded(key)

	clk.Add(2 * time.Hour)
	if _, ok := pool.NextAvailable(); ok {
		t.Fatal("Quota-exceeded key must stay out past the rate-limit window")
	}

	clk.Add(23 * time.Hour)
	if _, ok := pool.NextAvailable(); !ok {
		t.Fatal("Quota-exceeded key should return after 24h")
	}
}

// TestTemporaryErrorShortCooldown verifies the 5 second temporary
// cooldown: out for the current request, back almost immediately.
func TestTemporaryErrorShortCooldown(t *testing.T) {
	pool, clk := newTestPool(t, 1)

	key, _ := pool.NextAvailable()
	pool.MarkTemporaryError(key)

	if _, ok := pool.NextAvailable(); ok {
		t.Fatal("Key should be unavailable immediately after a temporary error")
	}

	clk.Add(5 * time.Second)
	if _, ok := pool.NextAvailable(); !ok {
		t.Fatal("Key should recover 5s after a temporary error")
	}
}

// TestInvalidKeyNeverReused verifies that Invalid is terminal no
// matter how much time passes.
func TestInvalidKeyNeverReused(t *testing.T) {
	pool, clk := newTestPool(t, 2)

	key, _ := pool.NextAvailable()
	pool.MarkInvalid(key)

	next, ok := pool.NextAvailable()
	if !ok || next.index != 1 {
		t.Fatalf("Expected key 1 after retiring key 0, got ok=%v", ok)
	}
	pool.MarkRateLimited(next)

	clk.Add(365 * 24 * time.Hour)
	revived, ok := pool.NextAvailable()
	if !ok {
		t.Fatal("Rate-limited key should have recovered")
	}
	if revived.index != 1 {
		t.Errorf("Got key %d, want 1; the invalid key must never return", revived.index)
	}
}

// TestPoolStatus verifies the availability aggregation.
func TestPoolStatus(t *testing.T) {
	empty := NewKeyPool(nil, time.Hour, 24*time.Hour, clock.NewMock(), nil)
	if got := empty.Status(); got != core.StatusUnavailable {
		t.Errorf("Empty pool status = %v, want Unavailable", got)
	}

	pool, clk := newTestPool(t, 2)
	if got := pool.Status(); got != core.StatusAvailable {
		t.Errorf("Fresh pool status = %v, want Available", got)
	}

	k1, _ := pool.NextAvailable()
	pool.MarkRateLimited(k1)
	if got := pool.Status(); got != core.StatusAvailable {
		t.Errorf("Pool with one cooling key = %v, want Available", got)
	}

	k2, _ := pool.NextAvailable()
	pool.MarkRateLimited(k2)
	if got := pool.Status(); got != core.StatusDegraded {
		t.Errorf("Pool with all keys cooling = %v, want Degraded", got)
	}

	clk.Add(time.Hour + time.Second)
	if got := pool.Status(); got != core.StatusAvailable {
		t.Errorf("Pool after cooldown expiry = %v, want Available", got)
	}
}

// TestPoolLastSuccess verifies the most-recent-success aggregation.
func TestPoolLastSuccess(t *testing.T) {
	pool, clk := newTestPool(t, 2)
	if !pool.LastSuccess().IsZero() {
		t.Error("Fresh pool should report a zero last success")
	}

	k1, _ := pool.NextAvailable()
	pool.RecordSuccess(k1)
	first := clk.Now()

	clk.Add(time.Minute)
	pool.MarkRateLimited(k1)
	k2, _ := pool.NextAvailable()
	pool.RecordSuccess(k2)

	if got := pool.LastSuccess(); !got.Equal(clk.Now()) {
		t.Errorf("LastSuccess = %v, want %v", got, clk.Now())
	}
	if pool.LastSuccess().Equal(first) {
		t.Error("LastSuccess should have advanced past the first success")
	}
}
