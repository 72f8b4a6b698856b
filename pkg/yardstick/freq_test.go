package yardstick

import (
	"errors"
	"math"
	"testing"
)

func TestFrequencyWord(t *testing.T) {
	tests := []struct {
		mhz  float64
		want uint32
	}{
		{433.92, 0x12147A},
		{315.0, 0x0D2000},
		{868.3, 0x242DDD},
		{915.0, 0x262000},
	}

	for _, tt := range tests {
		got, err := FrequencyWord(tt.mhz)
		if err != nil {
			t.Fatalf("%.3f MHz: %v", tt.mhz, err)
		}
		if got != tt.want {
			t.Errorf("%.3f MHz: got 0x%06X, want 0x%06X", tt.mhz, got, tt.want)
		}
		if back := FrequencyFromWord(got); math.Abs(back-tt.mhz) > 0.001 {
			t.Errorf("%.3f MHz: round trip gave %.6f", tt.mhz, back)
		}
	}
}

func TestFrequencyWordOutOfBand(t *testing.T) {
	for _, mhz := range []float64{2400, 350, 500, 0, -1} {
		if _, err := FrequencyWord(mhz); !errors.Is(err, ErrFrequencyOutOfBand) {
			t.Errorf("%.1f MHz: expected ErrFrequencyOutOfBand, got %v", mhz, err)
		}
	}
}

func TestFrequencyBand(t *testing.T) {
	tests := []struct {
		mhz  float64
		want string
	}{
		{300, "300MHz"},
		{348, "300MHz"},
		{348.1, "Unknown"},
		{433.92, "400MHz"},
		{779, "800MHz"},
		{928, "800MHz"},
		{2400, "Unknown"},
	}

	for _, tt := range tests {
		if got := FrequencyBand(tt.mhz); got != tt.want {
			t.Errorf("%.2f MHz: got %s, want %s", tt.mhz, got, tt.want)
		}
		if IsValidFrequency(tt.mhz) != (tt.want != "Unknown") {
			t.Errorf("%.2f MHz: IsValidFrequency disagrees with band", tt.mhz)
		}
	}
}

func TestRSSIToDBm(t *testing.T) {
	tests := []struct {
		raw  uint8
		want float64
	}{
		{0x00, -74},
		{0x14, -64},
		{0xEC, -84},
		{0x80, -138},
		{0x7F, -10.5},
	}

	for _, tt := range tests {
		if got := RSSIToDBm(tt.raw); got != tt.want {
			t.Errorf("0x%02X: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}
