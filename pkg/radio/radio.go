// Package radio defines the radio abstraction consumed by the frequency scanner.
package radio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotImplemented is returned by a Controller for operations the radio does not support
	ErrNotImplemented = errors.New("command not implemented by radio")

	// ErrUnknownRadio indicates a Which value with no radio behind it
	ErrUnknownRadio = errors.New("unknown radio")
)

// Which identifies one of the radios attached to the transceiver
type Which uint8

const (
	RadioA Which = iota
	RadioB
	RadioC
)

// String returns the radio name
func (w Which) String() string {
	switch w {
	case RadioA:
		return "RadioA"
	case RadioB:
		return "RadioB"
	case RadioC:
		return "RadioC"
	default:
		return fmt.Sprintf("Radio(%d)", uint8(w))
	}
}

// ParseWhich parses "RadioA", "a", "0" and similar forms
func ParseWhich(s string) (Which, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "radioa", "a", "0":
		return RadioA, nil
	case "radiob", "b", "1":
		return RadioB, nil
	case "radioc", "c", "2":
		return RadioC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRadio, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (w Which) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (w *Which) UnmarshalText(text []byte) error {
	parsed, err := ParseWhich(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Mode is the radio operating mode
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeRX
	ModeTX
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeRX:
		return "RX"
	case ModeTX:
		return "TX"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Controller is the set of radio operations the scanner drives.
//
// Every method is fallible. A radio that lacks a feature must return an error
// wrapping ErrNotImplemented so callers can tell "unsupported" apart from a
// transient failure.
type Controller interface {
	// SetFrequency tunes the radio. freqMHz is in MHz.
	SetFrequency(freqMHz float64, which Which) error

	// SetMode switches between RX and IDLE (TX is not used by the scanner)
	SetMode(mode Mode, which Which) error

	// RSSI reads the current received signal strength
	RSSI(which Which) (float64, error)

	// CarrierDetected reports whether a carrier is present on the current frequency
	CarrierDetected(which Which) (bool, error)

	// SetInterceptMode enables or disables promiscuous receive
	SetInterceptMode(enabled bool, which Which) error
}

// IsNotImplemented reports whether err means the radio lacks the operation
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// Packet is a frame received by a radio
type Packet struct {
	Data []byte
	RSSI float64
}

// Verdict is the answer of a packet interceptor
type Verdict uint8

const (
	// PassThrough hands the packet to normal packet handling
	PassThrough Verdict = iota

	// Discard consumes the packet
	Discard
)

// String returns the verdict name
func (v Verdict) String() string {
	if v == Discard {
		return "discard"
	}
	return "pass-through"
}

// Interceptor sees every packet before normal packet handling
type Interceptor interface {
	OnPacketReceived(pkt Packet, which Which) Verdict
}
