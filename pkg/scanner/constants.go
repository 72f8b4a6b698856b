// Package scanner sweeps a radio across a frequency range and ranks the
// frequencies that showed the most activity.
package scanner

import (
	"time"

	"github.com/herlein/rfscan/pkg/radio"
)

// Default sweep parameters
const (
	// DefaultStartFrequency is the first frequency of the sweep (MHz)
	DefaultStartFrequency float64 = 2400

	// DefaultEndFrequency bounds the sweep (MHz, exclusive)
	DefaultEndFrequency float64 = 2500

	// DefaultFrequencyStep is the distance between hops (MHz)
	DefaultFrequencyStep float64 = 1

	// DefaultRounds is how many times the range is swept
	DefaultRounds uint = 5

	// DefaultRadio is the radio driven when none is configured
	DefaultRadio = radio.RadioA

	// DefaultSettleTime is the wait between entering RX and sampling
	DefaultSettleTime = 1700 * time.Microsecond
)

// Limits
const (
	// MaxReportedResults caps the number of frequencies in a report
	MaxReportedResults = 10

	// MaxHops bounds the accumulator size
	MaxHops = 65535
)
