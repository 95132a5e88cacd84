// Package tts orchestrates text-to-speech synthesis across multiple
// providers with fallback sequencing and per-provider circuit breakers.
package tts

import (
	"fmt"
	"strings"
)

// DefaultLanguage is used when a voice name does not carry a parseable
// language prefix.
const DefaultLanguage = "cs-CZ"

// RateMultiplier converts a relative rate in [-100, 100] to a speaking
// rate multiplier on the 0.25..4.0 scale used by multiplier backends:
//
//	-100 -> 0.25, 0 -> 1.0, +100 -> 4.0
//
// The positive and negative halves use different slopes so both extremes
// land on the backend's accepted bounds. Callers that distinguish "rate
// not set" from "rate zero" should check for zero before calling; zero
// maps to the neutral multiplier 1.0.
func RateMultiplier(rate float64) float64 {
	rate = clamp(rate, -100, 100)
	normalized := rate / 100
	if rate >= 0 {
		return 1 + normalized*3
	}
	return 1 + normalized*0.75
}

// RatePercent formats a relative rate as a signed percentage string for
// percentage-string backends: 25 -> "+25%", -10 -> "-10%", 0 -> "+0%".
func RatePercent(rate float64) string {
	rate = clamp(rate, -100, 100)
	return fmt.Sprintf("%+g%%", rate)
}

// PitchSemitones converts a relative pitch in [-100, 100] to semitones
// on the -20..+20 scale linearly: -100 -> -20, 0 -> 0, +100 -> +20.
func PitchSemitones(pitch float64) float64 {
	pitch = clamp(pitch, -100, 100)
	return (pitch / 100) * 20
}

// PitchHz formats a relative pitch as a signed Hz string for Hz-style
// APIs: 10 -> "+10Hz", -5 -> "-5Hz", 0 -> "+0Hz".
func PitchHz(pitch float64) string {
	pitch = clamp(pitch, -100, 100)
	return fmt.Sprintf("%+gHz", pitch)
}

// VoiceLanguage extracts the language code from a voice name of the
// form "xx-YY-Foo-Bar" (the first two hyphen-separated segments, e.g.
// "cs-CZ-Wavenet-A" -> "cs-CZ"). Malformed names fall back to
// DefaultLanguage.
func VoiceLanguage(voice string) string {
	parts := strings.Split(voice, "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return DefaultLanguage
	}
	return parts[0] + "-" + parts[1]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
