// Package radiotest provides a scripted radio.Controller for tests.
package radiotest

import (
	"fmt"
	"math"
	"sync"

	"github.com/herlein/rfscan/pkg/radio"
)

// Call records one operation issued to the controller
type Call struct {
	Op      string
	Which   radio.Which
	FreqMHz float64
	Mode    radio.Mode
	Enabled bool
}

// Controller is an in-memory radio.Controller whose answers are scripted per frequency.
// The zero value is not usable; call New.
type Controller struct {
	mu sync.Mutex

	// Capability switches
	NoRSSI      bool
	NoCarrier   bool
	NoIntercept bool

	// Tunable range in MHz (inclusive). Zero values disable the check.
	MinMHz float64
	MaxMHz float64

	// Radios that exist; others answer radio.ErrUnknownRadio
	radios map[radio.Which]bool

	tuneFailures map[int64]bool
	rssi         map[int64][]float64
	carrier      map[int64][]bool
	rssiErr      map[int64]error

	// BeforeTune, if set, runs (unlocked) on every SetFrequency
	BeforeTune func(freqMHz float64)

	// InterceptErr, if set, is returned when enabling intercept mode
	InterceptErr error

	frequency map[radio.Which]float64
	mode      map[radio.Which]radio.Mode
	intercept map[radio.Which]bool
	calls     []Call
}

// New creates a controller with the given radios attached (RadioA when none are given)
func New(radios ...radio.Which) *Controller {
	if len(radios) == 0 {
		radios = []radio.Which{radio.RadioA}
	}
	c := &Controller{
		radios:       make(map[radio.Which]bool),
		tuneFailures: make(map[int64]bool),
		rssi:         make(map[int64][]float64),
		carrier:      make(map[int64][]bool),
		rssiErr:      make(map[int64]error),
		frequency:    make(map[radio.Which]float64),
		mode:         make(map[radio.Which]radio.Mode),
		intercept:    make(map[radio.Which]bool),
	}
	for _, w := range radios {
		c.radios[w] = true
	}
	return c
}

// key maps a frequency in MHz to whole kHz so float drift does not split entries
func key(freqMHz float64) int64 {
	return int64(math.Round(freqMHz * 1000))
}

// FailTune makes SetFrequency fail for the given frequencies
func (c *Controller) FailTune(freqsMHz ...float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range freqsMHz {
		c.tuneFailures[key(f)] = true
	}
}

// ScriptRSSI queues RSSI readings returned at freqMHz, one per read.
// Once the queue is drained the last value repeats. Unscripted frequencies read 0.
func (c *Controller) ScriptRSSI(freqMHz float64, readings ...float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rssi[key(freqMHz)] = append(c.rssi[key(freqMHz)], readings...)
}

// ScriptCarrier queues carrier-detect answers at freqMHz, one per read.
// Once drained the last value repeats. Unscripted frequencies report no carrier.
func (c *Controller) ScriptCarrier(freqMHz float64, detections ...bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.carrier[key(freqMHz)] = append(c.carrier[key(freqMHz)], detections...)
}

// FailRSSI makes RSSI reads at freqMHz return err
func (c *Controller) FailRSSI(freqMHz float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rssiErr[key(freqMHz)] = err
}

func (c *Controller) check(which radio.Which) error {
	if !c.radios[which] {
		return fmt.Errorf("%w: %s", radio.ErrUnknownRadio, which)
	}
	return nil
}

// SetFrequency implements radio.Controller
func (c *Controller) SetFrequency(freqMHz float64, which radio.Which) error {
	if c.BeforeTune != nil {
		c.BeforeTune(freqMHz)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "SetFrequency", Which: which, FreqMHz: freqMHz})

	if err := c.check(which); err != nil {
		return err
	}
	if c.MaxMHz > 0 && (freqMHz < c.MinMHz || freqMHz > c.MaxMHz) {
		return fmt.Errorf("frequency %.3f MHz out of range", freqMHz)
	}
	if c.tuneFailures[key(freqMHz)] {
		return fmt.Errorf("PLL failed to lock at %.3f MHz", freqMHz)
	}
	c.frequency[which] = freqMHz
	return nil
}

// SetMode implements radio.Controller
func (c *Controller) SetMode(mode radio.Mode, which radio.Which) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "SetMode", Which: which, Mode: mode})

	if err := c.check(which); err != nil {
		return err
	}
	c.mode[which] = mode
	return nil
}

// RSSI implements radio.Controller
func (c *Controller) RSSI(which radio.Which) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "RSSI", Which: which})

	if err := c.check(which); err != nil {
		return 0, err
	}
	if c.NoRSSI {
		return 0, radio.ErrNotImplemented
	}

	k := key(c.frequency[which])
	if err := c.rssiErr[k]; err != nil {
		return 0, err
	}
	queue := c.rssi[k]
	if len(queue) == 0 {
		return 0, nil
	}
	value := queue[0]
	if len(queue) > 1 {
		c.rssi[k] = queue[1:]
	}
	return value, nil
}

// CarrierDetected implements radio.Controller
func (c *Controller) CarrierDetected(which radio.Which) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "CarrierDetected", Which: which})

	if err := c.check(which); err != nil {
		return false, err
	}
	if c.NoCarrier {
		return false, radio.ErrNotImplemented
	}

	k := key(c.frequency[which])
	queue := c.carrier[k]
	if len(queue) == 0 {
		return false, nil
	}
	value := queue[0]
	if len(queue) > 1 {
		c.carrier[k] = queue[1:]
	}
	return value, nil
}

// SetInterceptMode implements radio.Controller
func (c *Controller) SetInterceptMode(enabled bool, which radio.Which) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: "SetInterceptMode", Which: which, Enabled: enabled})

	if err := c.check(which); err != nil {
		return err
	}
	if c.NoIntercept {
		return radio.ErrNotImplemented
	}
	if enabled && c.InterceptErr != nil {
		return c.InterceptErr
	}
	c.intercept[which] = enabled
	return nil
}

// Calls returns a copy of every recorded operation
func (c *Controller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CountOp returns how many times op was called
func (c *Controller) CountOp(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// Mode returns the current mode of a radio
func (c *Controller) Mode(which radio.Which) radio.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode[which]
}

// Intercepting reports whether intercept mode is enabled on a radio
func (c *Controller) Intercepting(which radio.Which) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intercept[which]
}
