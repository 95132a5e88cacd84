package tts

import (
	"errors"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

// ================================
// Provider Registry Tests
// ================================

// TestNewRegistryValidation verifies the fail-fast checks on entries.
func TestNewRegistryValidation(t *testing.T) {
	clk := clock.NewMock()
	provider := &mockProvider{name: "google"}
	breaker := newChainBreaker(t, "google", clk)

	tests := []struct {
		name      string
		entries   []Entry
		wantError bool
	}{
		{
			name:      "empty registry is allowed",
			entries:   nil,
			wantError: false,
		},
		{
			name: "valid entry",
			entries: []Entry{
				{Name: "google", Provider: provider, Breaker: breaker},
			},
			wantError: false,
		},
		{
			name: "nil provider",
			entries: []Entry{
				{Name: "google", Breaker: breaker},
			},
			wantError: true,
		},
		{
			name: "nil breaker",
			entries: []Entry{
				{Name: "google", Provider: provider},
			},
			wantError: true,
		},
		{
			name: "duplicate name differing only in case",
			entries: []Entry{
				{Name: "google", Provider: provider, Breaker: breaker},
				{Name: "GOOGLE", Provider: provider, Breaker: breaker},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entries)
			if (err != nil) != tt.wantError {
				t.Errorf("NewRegistry() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Errorf("Error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

// TestRegistryNameDefaultsFromProvider verifies that an entry without
// an explicit name takes the provider's own name.
func TestRegistryNameDefaultsFromProvider(t *testing.T) {
	clk := clock.NewMock()
	provider := &mockProvider{name: "openai"}
	reg, err := NewRegistry([]Entry{
		{Provider: provider, Breaker: newChainBreaker(t, "openai", clk)},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if _, ok := reg.Lookup("openai"); !ok {
		t.Error("Entry should be registered under the provider's name")
	}
}

// TestRegistryLookupCaseInsensitive verifies lookup normalization.
func TestRegistryLookupCaseInsensitive(t *testing.T) {
	clk := clock.NewMock()
	reg, err := NewRegistry([]Entry{
		{Name: "Google", Provider: &mockProvider{name: "Google"}, Breaker: newChainBreaker(t, "google", clk)},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	for _, name := range []string{"google", "GOOGLE", "Google", "gOoGlE"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("Lookup(%q) should find the entry", name)
		}
	}
	if _, ok := reg.Lookup("ghost"); ok {
		t.Error("Lookup(ghost) should miss")
	}
}

// TestRegistryDefaultOrder verifies priority-ascending order with a
// name tiebreak, and that disabled providers are excluded.
func TestRegistryDefaultOrder(t *testing.T) {
	clk := clock.NewMock()
	entries := []Entry{
		{Name: "local-xtts", Provider: &mockProvider{name: "local-xtts"}, Priority: 90, Enabled: true, Breaker: newChainBreaker(t, "local-xtts", clk)},
		{Name: "google", Provider: &mockProvider{name: "google"}, Priority: 10, Enabled: true, Breaker: newChainBreaker(t, "google", clk)},
		{Name: "openai", Provider: &mockProvider{name: "openai"}, Priority: 20, Enabled: true, Breaker: newChainBreaker(t, "openai", clk)},
		{Name: "azure", Provider: &mockProvider{name: "azure"}, Priority: 20, Enabled: true, Breaker: newChainBreaker(t, "azure", clk)},
		{Name: "disabled", Provider: &mockProvider{name: "disabled"}, Priority: 5, Enabled: false, Breaker: newChainBreaker(t, "disabled", clk)},
	}
	reg, err := NewRegistry(entries)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	order := reg.DefaultOrder()
	want := []string{"google", "azure", "openai", "local-xtts"}
	if len(order) != len(want) {
		t.Fatalf("DefaultOrder returned %d entries, want %d", len(order), len(want))
	}
	for i, name := range want {
		if order[i].Name != name {
			t.Errorf("DefaultOrder[%d] = %q, want %q", i, order[i].Name, name)
		}
	}

	all := reg.All()
	if len(all) != 5 {
		t.Errorf("All() returned %d entries, want 5 (disabled included)", len(all))
	}
}

// TestRegistryDefaultOrderIsACopy verifies that callers mutating the
// returned slice do not corrupt the registry's order.
func TestRegistryDefaultOrderIsACopy(t *testing.T) {
	clk := clock.NewMock()
	reg, err := NewRegistry([]Entry{
		{Name: "google", Provider: &mockProvider{name: "google"}, Priority: 10, Enabled: true, Breaker: newChainBreaker(t, "google", clk)},
		{Name: "openai", Provider: &mockProvider{name: "openai"}, Priority: 20, Enabled: true, Breaker: newChainBreaker(t, "openai", clk)},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	first := reg.DefaultOrder()
	first[0], first[1] = first[1], first[0]

	second := reg.DefaultOrder()
	if second[0].Name != "google" || second[1].Name != "openai" {
		t.Errorf("DefaultOrder was corrupted by caller mutation: %v", []string{second[0].Name, second[1].Name})
	}
}
