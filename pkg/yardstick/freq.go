package yardstick

import (
	"errors"
	"fmt"
	"math"
)

// ErrFrequencyOutOfBand is returned for frequencies the CC1111 synthesizer cannot reach
var ErrFrequencyOutOfBand = errors.New("frequency outside CC1111 bands")

type band struct {
	name     string
	min, max float64 // MHz, inclusive
}

var bands = []band{
	{"300MHz", 300, 348},
	{"400MHz", 387, 464},
	{"800MHz", 779, 928},
}

// IsValidFrequency checks if a frequency in MHz is within CC1111 supported bands
func IsValidFrequency(freqMHz float64) bool {
	return FrequencyBand(freqMHz) != "Unknown"
}

// FrequencyBand returns the band name for a frequency in MHz
func FrequencyBand(freqMHz float64) string {
	for _, b := range bands {
		if freqMHz >= b.min && freqMHz <= b.max {
			return b.name
		}
	}
	return "Unknown"
}

// FrequencyWord computes the 24-bit FREQ2:FREQ1:FREQ0 value for the 24 MHz crystal.
// FREQ = freq_hz * 2^16 / f_xosc
func FrequencyWord(freqMHz float64) (uint32, error) {
	if !IsValidFrequency(freqMHz) {
		return 0, fmt.Errorf("%w: %.3f MHz", ErrFrequencyOutOfBand, freqMHz)
	}
	freqHz := uint64(math.Round(freqMHz * 1e6))
	return uint32((freqHz * 65536) / CrystalFreqHz), nil
}

// FrequencyFromWord converts a FREQ register word back to MHz
func FrequencyFromWord(word uint32) float64 {
	return float64(uint64(word)*CrystalFreqHz/65536) / 1e6
}

// RSSIToDBm converts raw CC1111 RSSI register value to dBm.
// The register is a signed value in 0.5 dB steps.
func RSSIToDBm(rssi uint8) float64 {
	return float64(int8(rssi))/2.0 - RSSIOffsetDBm
}
