package tts

import (
	"math"
	"testing"
)

// ================================
// Parameter Normalization Tests
// ================================

const floatTolerance = 1e-9

// TestRateMultiplier verifies the relative-rate to multiplier mapping
// used by multiplier-scale backends (0.25..4.0).
func TestRateMultiplier(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want float64
	}{
		{"neutral rate", 0, 1.0},
		{"full slowdown hits lower bound", -100, 0.25},
		{"full speedup hits upper bound", 100, 4.0},
		{"half speedup", 50, 2.5},
		{"half slowdown", -50, 0.625},
		{"mild speedup", 30, 1.9},
		{"mild slowdown", -20, 0.85},
		{"above range clamps to upper bound", 250, 4.0},
		{"below range clamps to lower bound", -300, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateMultiplier(tt.rate)
			if math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("RateMultiplier(%g) = %g, want %g", tt.rate, got, tt.want)
			}
		})
	}
}

// TestRatePercent verifies signed percentage formatting for
// percentage-string backends.
func TestRatePercent(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"positive rate", 25, "+25%"},
		{"negative rate", -10, "-10%"},
		{"zero keeps explicit sign", 0, "+0%"},
		{"fractional rate", 12.5, "+12.5%"},
		{"out of range clamps", 150, "+100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatePercent(tt.rate); got != tt.want {
				t.Errorf("RatePercent(%g) = %q, want %q", tt.rate, got, tt.want)
			}
		})
	}
}

// TestPitchSemitones verifies the linear pitch to semitone mapping
// (-100..100 onto -20..+20).
func TestPitchSemitones(t *testing.T) {
	tests := []struct {
		name  string
		pitch float64
		want  float64
	}{
		{"neutral pitch", 0, 0},
		{"maximum raise", 100, 20},
		{"maximum lower", -100, -20},
		{"half raise", 50, 10},
		{"quarter lower", -25, -5},
		{"out of range clamps", 400, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PitchSemitones(tt.pitch)
			if math.Abs(got-tt.want) > floatTolerance {
				t.Errorf("PitchSemitones(%g) = %g, want %g", tt.pitch, got, tt.want)
			}
		})
	}
}

// TestPitchHz verifies signed Hz formatting for Hz-style APIs.
func TestPitchHz(t *testing.T) {
	tests := []struct {
		name  string
		pitch float64
		want  string
	}{
		{"positive pitch", 10, "+10Hz"},
		{"negative pitch", -5, "-5Hz"},
		{"zero keeps explicit sign", 0, "+0Hz"},
		{"fractional pitch", 2.5, "+2.5Hz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PitchHz(tt.pitch); got != tt.want {
				t.Errorf("PitchHz(%g) = %q, want %q", tt.pitch, got, tt.want)
			}
		})
	}
}

// TestVoiceLanguage verifies language extraction from provider voice
// names and the fallback for names without a language prefix.
func TestVoiceLanguage(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		want  string
	}{
		{"google wavenet voice", "cs-CZ-Wavenet-A", "cs-CZ"},
		{"google standard voice", "en-US-Standard-B", "en-US"},
		{"bare language pair", "de-DE", "de-DE"},
		{"single segment falls back", "alloy", DefaultLanguage},
		{"empty voice falls back", "", DefaultLanguage},
		{"missing language part falls back", "-CZ", DefaultLanguage},
		{"missing region part falls back", "cs-", DefaultLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VoiceLanguage(tt.voice); got != tt.want {
				t.Errorf("VoiceLanguage(%q) = %q, want %q", tt.voice, got, tt.want)
			}
		})
	}
}
