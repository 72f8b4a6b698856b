package scanner

import (
	"errors"
	"fmt"
)

// Scanner errors
var (
	// ErrInvalidStep indicates a frequency step that is not positive
	ErrInvalidStep = errors.New("frequency step must be positive")

	// ErrInvalidRange indicates start/end frequencies the radio rejects or that yield no hops
	ErrInvalidRange = errors.New("invalid frequency range")

	// ErrInvalidRounds indicates a zero round count
	ErrInvalidRounds = errors.New("rounds must be at least 1")

	// ErrUnsupportedRadio indicates the radio supports neither RSSI nor carrier detection
	ErrUnsupportedRadio = errors.New("radio needs to support RSSI or carrier detection")

	// ErrNoDetection indicates a completed scan that found no activity
	ErrNoDetection = errors.New("nothing detected")

	// ErrScanInProgress indicates a scan is already running on this scanner
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrBufferAllocation indicates the result buffer could not be sized for the sweep
	ErrBufferAllocation = errors.New("cannot allocate result buffer")

	// ErrInterceptMode indicates the radio refused to enter or leave intercept mode
	ErrInterceptMode = errors.New("failed to set intercept mode")

	// ErrConfigVersion indicates unsupported config file version
	ErrConfigVersion = errors.New("unsupported configuration version")
)

// HopError describes a hop that was skipped in one round. It is logged and
// counted, never returned from Run.
type HopError struct {
	Round   uint
	Hop     int
	FreqMHz float64
	Op      string
	Err     error
}

func (e *HopError) Error() string {
	return fmt.Sprintf("round %d hop %d (%.3f MHz): %s: %v", e.Round, e.Hop, e.FreqMHz, e.Op, e.Err)
}

func (e *HopError) Unwrap() error {
	return e.Err
}

// RangeError reports a sweep bound the radio refused or an empty range.
// It matches ErrInvalidRange with errors.Is.
type RangeError struct {
	Field   string // startFrequency or endFrequency
	FreqMHz float64
	Err     error
}

func (e *RangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %.3f MHz is not valid: %v", e.Field, e.FreqMHz, e.Err)
	}
	return fmt.Sprintf("%s %.3f MHz is not valid", e.Field, e.FreqMHz)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// Is makes RangeError match ErrInvalidRange
func (e *RangeError) Is(target error) bool {
	return target == ErrInvalidRange
}
