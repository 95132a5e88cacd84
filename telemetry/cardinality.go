package telemetry

import (
	"sync"
	"time"
)

// CardinalityLimiter caps the number of distinct values a metric label
// can take. Labels like "voice" come from request input, and an
// unbounded value set would blow up the collector's time series count.
// Once a label reaches its limit, new values collapse to "other" while
// already-seen values keep passing through.
type CardinalityLimiter struct {
	limits map[string]int

	mu   sync.Mutex
	seen map[string]map[string]time.Time // metric.label -> value -> last seen

	stopChan chan struct{}
	stopped  sync.Once
}

// NewCardinalityLimiter creates a limiter with per-label limits.
// Labels without an entry pass through unchecked.
func NewCardinalityLimiter(limits map[string]int) *CardinalityLimiter {
	c := &CardinalityLimiter{
		limits:   limits,
		seen:     make(map[string]map[string]time.Time),
		stopChan: make(chan struct{}),
	}
	// Periodic cleanup so short-lived values do not pin memory forever.
	go c.cleanupLoop()
	return c
}

// CheckAndLimit returns the value to emit for a metric label, replacing
// it with "other" when the label is over its cardinality limit.
func (c *CardinalityLimiter) CheckAndLimit(metric, label, value string) string {
	limit, hasLimit := c.limits[label]
	if !hasLimit {
		return value
	}

	key := metric + "." + label

	c.mu.Lock()
	defer c.mu.Unlock()

	values := c.seen[key]
	if values == nil {
		values = make(map[string]time.Time)
		c.seen[key] = values
	}

	if _, exists := values[value]; !exists && len(values) >= limit {
		return "other"
	}

	values[value] = time.Now()
	return value
}

// CurrentCardinality returns the total number of tracked label values
func (c *CardinalityLimiter) CurrentCardinality() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, values := range c.seen {
		total += len(values)
	}
	return total
}

// MaxCardinality returns the sum of all configured limits
func (c *CardinalityLimiter) MaxCardinality() int {
	total := 0
	for _, limit := range c.limits {
		total += limit
	}
	return total
}

func (c *CardinalityLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

// cleanup drops values not seen in the last 10 minutes, freeing limit
// slots for whatever arrives next.
func (c *CardinalityLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, values := range c.seen {
		for value, lastSeen := range values {
			if lastSeen.Before(cutoff) {
				delete(values, value)
			}
		}
		if len(values) == 0 {
			delete(c.seen, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (c *CardinalityLimiter) Stop() {
	c.stopped.Do(func() {
		close(c.stopChan)
	})
}
