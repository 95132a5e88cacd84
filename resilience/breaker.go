package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

// Status represents the state of a circuit breaker.
type Status int

const (
	// StatusClosed allows all requests through
	StatusClosed Status = iota
	// StatusOpen blocks all requests until the reset timeout elapses
	StatusOpen
	// StatusHalfOpen allows requests through to probe for recovery
	StatusHalfOpen
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpen:
		return "open"
	case StatusHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// maxFailureMultiplier caps the exponential backoff multiplier so it
// cannot overflow. Timeouts are already capped by MaxResetTimeout long
// before the multiplier gets anywhere near this.
const maxFailureMultiplier = int64(1) << 32

// Settings holds configuration for a circuit breaker.
type Settings struct {
	// Name identifies the breaker in logs and metrics, typically the
	// provider name it guards.
	Name string

	// FailureThreshold is the number of consecutive failures before the
	// breaker opens. Use core.DisabledFailureThreshold to keep a breaker
	// permanently closed for providers that must always be tried.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before probing.
	ResetTimeout time.Duration

	// UseExponentialBackoff doubles the open window after every trip,
	// capped at MaxResetTimeout. A success resets the doubling.
	UseExponentialBackoff bool

	// MaxResetTimeout caps the open window when backoff is enabled.
	MaxResetTimeout time.Duration

	// Clock supplies time; tests inject a mock clock. Defaults to the
	// real clock.
	Clock clock.Clock

	// Logger for breaker events
	Logger core.Logger

	// Metrics collector for monitoring
	Metrics MetricsCollector
}

// Validate checks the settings for basic sanity.
func (s *Settings) Validate() error {
	if s.FailureThreshold < 1 {
		return fmt.Errorf("failure threshold must be at least 1, got %d: %w",
			s.FailureThreshold, core.ErrInvalidConfiguration)
	}
	if s.ResetTimeout <= 0 {
		return fmt.Errorf("reset timeout must be positive, got %s: %w",
			s.ResetTimeout, core.ErrInvalidConfiguration)
	}
	if s.UseExponentialBackoff && s.MaxResetTimeout < s.ResetTimeout {
		return fmt.Errorf("max reset timeout %s is below reset timeout %s: %w",
			s.MaxResetTimeout, s.ResetTimeout, core.ErrInvalidConfiguration)
	}
	return nil
}

// DefaultSettings returns production-ready defaults for the named breaker.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:                  name,
		FailureThreshold:      3,
		ResetTimeout:          30 * time.Second,
		UseExponentialBackoff: true,
		MaxResetTimeout:       10 * time.Minute,
		Clock:                 clock.New(),
		Logger:                &core.NoOpLogger{},
		Metrics:               &noopMetrics{},
	}
}

// Breaker is a three-state circuit breaker that derives its status from
// recorded outcomes instead of running background transitions. The
// status is computed at read time from the open deadline:
//
//   - no deadline: closed, requests flow normally
//   - deadline in the future: open, requests should be skipped
//   - deadline reached: half-open, requests probe for recovery
//
// There is no half-open trial limit; every caller that observes
// half-open may attempt, and the first recorded outcome decides whether
// the breaker closes or re-opens. Callers are expected to check Allow
// (or Status), invoke the guarded operation themselves, and report the
// outcome through RecordSuccess or RecordFailure.
type Breaker struct {
	settings Settings
	clock    clock.Clock
	logger   core.Logger
	metrics  MetricsCollector

	mu                  sync.Mutex
	consecutiveFailures int
	failureMultiplier   int64
	openUntil           time.Time // zero when the breaker has not tripped
}

// NewBreaker creates a circuit breaker from the given settings.
// Zero-valued optional fields are filled with defaults.
func NewBreaker(settings Settings) (*Breaker, error) {
	if settings.Name == "" {
		settings.Name = "default"
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 3
	}
	if settings.ResetTimeout == 0 {
		settings.ResetTimeout = 30 * time.Second
	}
	if settings.UseExponentialBackoff && settings.MaxResetTimeout == 0 {
		settings.MaxResetTimeout = 10 * time.Minute
	}
	if settings.Clock == nil {
		settings.Clock = clock.New()
	}
	if settings.Logger == nil {
		settings.Logger = &core.NoOpLogger{}
	}
	if settings.Metrics == nil {
		settings.Metrics = &noopMetrics{}
	}

	if err := settings.Validate(); err != nil {
		settings.Logger.Error("Circuit breaker configuration rejected", map[string]interface{}{
			"operation": "breaker_validation_failed",
			"name":      settings.Name,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("invalid circuit breaker settings: %w", err)
	}

	b := &Breaker{
		settings:          settings,
		clock:             settings.Clock,
		logger:            settings.Logger,
		metrics:           settings.Metrics,
		failureMultiplier: 1,
	}

	b.logger.Debug("Circuit breaker created", map[string]interface{}{
		"operation":         "breaker_created",
		"name":              settings.Name,
		"failure_threshold": settings.FailureThreshold,
		"reset_timeout_ms":  settings.ResetTimeout.Milliseconds(),
		"exponential":       settings.UseExponentialBackoff,
	})

	return b, nil
}

// Name returns the breaker's identifier.
func (b *Breaker) Name() string {
	return b.settings.Name
}

// Status returns the current derived status.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked(b.clock.Now())
}

// Allow reports whether a request may be attempted right now.
// Both closed and half-open admit requests; only open rejects.
func (b *Breaker) Allow() bool {
	return b.Status() != StatusOpen
}

func (b *Breaker) statusLocked(now time.Time) Status {
	if b.openUntil.IsZero() {
		return StatusClosed
	}
	if !now.Before(b.openUntil) {
		return StatusHalfOpen
	}
	return StatusOpen
}

// RecordSuccess resets the breaker unconditionally: the failure count
// and backoff multiplier return to their initial values and any open
// deadline is cleared. A success during half-open therefore fully
// closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	prior := b.statusLocked(b.clock.Now())
	hadFailures := b.consecutiveFailures > 0
	b.consecutiveFailures = 0
	b.failureMultiplier = 1
	b.openUntil = time.Time{}
	b.mu.Unlock()

	b.metrics.RecordSuccess(b.settings.Name)
	if prior != StatusClosed {
		b.metrics.RecordStateChange(b.settings.Name, prior.String(), StatusClosed.String())
		b.logger.Info("Circuit breaker closed after recovery", map[string]interface{}{
			"operation":  "breaker_closed",
			"name":       b.settings.Name,
			"from_state": prior.String(),
		})
	} else if hadFailures {
		b.logger.Debug("Circuit breaker failure count reset", map[string]interface{}{
			"operation": "breaker_reset",
			"name":      b.settings.Name,
		})
	}
}

// RecordFailure increments the consecutive failure count and opens the
// breaker once the threshold is reached. With exponential backoff
// enabled, each trip doubles the next open window up to MaxResetTimeout.
// A failure during half-open re-opens immediately because the count is
// already at the threshold.
func (b *Breaker) RecordFailure() {
	now := b.clock.Now()

	b.mu.Lock()
	prior := b.statusLocked(now)
	b.consecutiveFailures++
	failures := b.consecutiveFailures

	if failures < b.settings.FailureThreshold {
		b.mu.Unlock()
		b.metrics.RecordFailure(b.settings.Name, "below_threshold")
		return
	}

	timeout := b.settings.ResetTimeout
	if b.settings.UseExponentialBackoff {
		timeout = scaledTimeout(b.settings.ResetTimeout, b.failureMultiplier, b.settings.MaxResetTimeout)
		if b.failureMultiplier < maxFailureMultiplier {
			b.failureMultiplier *= 2
		}
	}
	b.openUntil = now.Add(timeout)
	b.mu.Unlock()

	b.metrics.RecordFailure(b.settings.Name, "threshold_reached")
	b.metrics.RecordStateChange(b.settings.Name, prior.String(), StatusOpen.String())
	b.logger.Warn("Circuit breaker opened", map[string]interface{}{
		"operation":            "breaker_opened",
		"name":                 b.settings.Name,
		"consecutive_failures": failures,
		"open_for_ms":          timeout.Milliseconds(),
		"from_state":           prior.String(),
	})
}

// RecordRejection notes that a caller skipped an attempt because the
// breaker was open. Does not mutate breaker state.
func (b *Breaker) RecordRejection() {
	b.metrics.RecordRejection(b.settings.Name)
	b.logger.Debug("Attempt skipped, circuit open", map[string]interface{}{
		"operation": "breaker_rejected",
		"name":      b.settings.Name,
	})
}

// scaledTimeout multiplies base by multiplier, capped at max.
func scaledTimeout(base time.Duration, multiplier int64, max time.Duration) time.Duration {
	if base >= max {
		return max
	}
	if multiplier > int64(max/base) {
		return max
	}
	return base * time.Duration(multiplier)
}

// Snapshot is a point-in-time view of a breaker's state, used for
// status reporting.
type Snapshot struct {
	Name                string        `json:"name"`
	Status              Status        `json:"-"`
	StatusText          string        `json:"status"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	OpenUntil           time.Time     `json:"open_until,omitempty"`
	RemainingOpen       time.Duration `json:"remaining_open,omitempty"`
}

// Snapshot returns the breaker's current state for reporting. The
// remaining open window is zero unless the breaker is open.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	status := b.statusLocked(now)
	snap := Snapshot{
		Name:                b.settings.Name,
		Status:              status,
		StatusText:          status.String(),
		ConsecutiveFailures: b.consecutiveFailures,
		OpenUntil:           b.openUntil,
	}
	if status == StatusOpen {
		snap.RemainingOpen = b.openUntil.Sub(now)
	}
	return snap
}
