package scanner

import (
	"fmt"

	"github.com/herlein/rfscan/pkg/radio"
)

// DetectionMode selects how activity is measured for a whole scan
type DetectionMode uint8

const (
	// RSSIAverage sums RSSI readings and reports their average over rounds
	RSSIAverage DetectionMode = iota + 1

	// CarrierHitCount counts the rounds in which a carrier was detected
	CarrierHitCount
)

// String returns the mode name
func (m DetectionMode) String() string {
	switch m {
	case RSSIAverage:
		return "rssi-average"
	case CarrierHitCount:
		return "carrier-hit-count"
	default:
		return fmt.Sprintf("DetectionMode(%d)", uint8(m))
	}
}

// Capabilities records which sensing reads a radio answers
type Capabilities struct {
	RSSI          bool
	CarrierDetect bool
}

// ProbeCapabilities issues one best-effort read of RSSI and of carrier detect.
// Only a "not implemented" answer marks a capability absent; any other error
// still counts as supported.
func ProbeCapabilities(ctrl radio.Controller, which radio.Which) Capabilities {
	_, rssiErr := ctrl.RSSI(which)
	_, cdErr := ctrl.CarrierDetected(which)
	return Capabilities{
		RSSI:          !radio.IsNotImplemented(rssiErr),
		CarrierDetect: !radio.IsNotImplemented(cdErr),
	}
}

// SelectMode prefers RSSI and falls back to carrier detection
func SelectMode(caps Capabilities) (DetectionMode, error) {
	switch {
	case caps.RSSI:
		return RSSIAverage, nil
	case caps.CarrierDetect:
		return CarrierHitCount, nil
	default:
		return 0, ErrUnsupportedRadio
	}
}

// Strategy takes one sample per hop in the selected mode
type Strategy struct {
	mode  DetectionMode
	ctrl  radio.Controller
	which radio.Which
}

// NewStrategy binds a detection mode to a radio
func NewStrategy(mode DetectionMode, ctrl radio.Controller, which radio.Which) *Strategy {
	return &Strategy{mode: mode, ctrl: ctrl, which: which}
}

// Mode returns the strategy's detection mode
func (s *Strategy) Mode() DetectionMode {
	return s.mode
}

// Sample returns the raw RSSI reading, or 1/0 for carrier present/absent
func (s *Strategy) Sample() (float64, error) {
	if s.mode == RSSIAverage {
		return s.ctrl.RSSI(s.which)
	}

	detected, err := s.ctrl.CarrierDetected(s.which)
	if err != nil {
		return 0, err
	}
	if detected {
		return 1, nil
	}
	return 0, nil
}
