package yardstick

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/gousb"

	"github.com/herlein/rfscan/pkg/logging"
	"github.com/herlein/rfscan/pkg/radio"
)

// RegisterAccess is the register peek/poke surface the controller drives
type RegisterAccess interface {
	PeekByte(address uint16) (uint8, error)
	PokeByte(address uint16, value uint8) error
}

// filterState holds the packet filter registers cleared by intercept mode
type filterState struct {
	mdmcfg2  uint8
	pktctrl1 uint8
}

// Controller implements radio.Controller on one or more YardStick One radios.
// Each radio slot maps to one device.
type Controller struct {
	logger *slog.Logger

	mu     sync.Mutex
	radios map[radio.Which]RegisterAccess
	saved  map[radio.Which]filterState
}

// WithControllerLogger sets the logger for the controller
func WithControllerLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller over already opened radios
func NewController(radios map[radio.Which]RegisterAccess, options ...func(*Controller)) *Controller {
	c := &Controller{
		logger: logging.Discard(),
		radios: make(map[radio.Which]RegisterAccess, len(radios)),
		saved:  make(map[radio.Which]filterState),
	}
	for which, r := range radios {
		c.radios[which] = r
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// OpenController selects one device per selector and assigns them to RadioA,
// RadioB, RadioC in order. Each device must answer a ping and report a CC1111
// before it gets a slot. The front-end amplifiers are enabled when amp is true.
func OpenController(usb *gousb.Context, amp bool, selectors []DeviceSelector, options ...func(*Controller)) (*Controller, error) {
	if len(selectors) == 0 {
		selectors = []DeviceSelector{""}
	}
	if len(selectors) > 3 {
		return nil, fmt.Errorf("at most 3 radios supported, got %d selectors", len(selectors))
	}

	devices, err := SelectDevices(usb, selectors...)
	if err != nil {
		return nil, err
	}

	radios := make(map[radio.Which]RegisterAccess, len(devices))
	for i, d := range devices {
		if err := verifyDevice(d); err != nil {
			closeAll(devices)
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		if amp {
			if err := d.SetAmpMode(AmpModeOn); err != nil {
				closeAll(devices)
				return nil, fmt.Errorf("%s: %w", d, err)
			}
		}
		radios[radio.Which(i)] = d
	}

	c := NewController(radios, options...)
	for which, d := range devices {
		c.logger.Info("radio attached", slog.String("radio", radio.Which(which).String()), slog.String("device", d.String()))
	}
	return c, nil
}

// Close restores any intercepted filters and closes devices that support it
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for which, r := range c.radios {
		if st, ok := c.saved[which]; ok {
			if err := c.restoreFilters(r, st); err != nil {
				errs = append(errs, err)
			}
			delete(c.saved, which)
		}
		if closer, ok := r.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) lookup(which radio.Which) (RegisterAccess, error) {
	r, ok := c.radios[which]
	if !ok {
		return nil, fmt.Errorf("%w: %s", radio.ErrUnknownRadio, which)
	}
	return r, nil
}

// SetFrequency programs FREQ2/FREQ1/FREQ0. The radio must be idle.
func (c *Controller) SetFrequency(freqMHz float64, which radio.Which) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(which)
	if err != nil {
		return err
	}

	word, err := FrequencyWord(freqMHz)
	if err != nil {
		return err
	}

	if err := r.PokeByte(RegFREQ2, uint8(word>>16)); err != nil {
		return fmt.Errorf("failed to set FREQ2: %w", err)
	}
	if err := r.PokeByte(RegFREQ1, uint8(word>>8)); err != nil {
		return fmt.Errorf("failed to set FREQ1: %w", err)
	}
	if err := r.PokeByte(RegFREQ0, uint8(word)); err != nil {
		return fmt.Errorf("failed to set FREQ0: %w", err)
	}

	c.logger.Debug("frequency set", slog.String("radio", which.String()), slog.Float64("mhz", freqMHz), slog.Uint64("word", uint64(word)))
	return nil
}

// SetMode strobes RX or IDLE without changing MCSM1. Transmit is not supported.
func (c *Controller) SetMode(mode radio.Mode, which radio.Which) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(which)
	if err != nil {
		return err
	}

	var strobe uint8
	switch mode {
	case radio.ModeIdle:
		strobe = RFSTSidle
	case radio.ModeRX:
		strobe = RFSTSrx
	default:
		return fmt.Errorf("%w: mode %v", radio.ErrNotImplemented, mode)
	}

	if err := r.PokeByte(RegRFST, strobe); err != nil {
		return fmt.Errorf("failed to strobe %v: %w", mode, err)
	}
	return nil
}

// RSSI reads the RSSI register in dBm
func (c *Controller) RSSI(which radio.Which) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(which)
	if err != nil {
		return 0, err
	}

	raw, err := r.PeekByte(RegRSSI)
	if err != nil {
		return 0, fmt.Errorf("failed to read RSSI: %w", err)
	}
	return RSSIToDBm(raw), nil
}

// CarrierDetected reports the carrier sense bit of PKTSTATUS
func (c *Controller) CarrierDetected(which radio.Which) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(which)
	if err != nil {
		return false, err
	}

	status, err := r.PeekByte(RegPKTSTATUS)
	if err != nil {
		return false, fmt.Errorf("failed to read PKTSTATUS: %w", err)
	}
	return status&PKTSTATUSCarrier != 0, nil
}

// SetInterceptMode disables sync word and address filtering so every
// demodulated frame is delivered, and restores the saved filters when disabled.
func (c *Controller) SetInterceptMode(enabled bool, which radio.Which) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.lookup(which)
	if err != nil {
		return err
	}

	if !enabled {
		st, ok := c.saved[which]
		if !ok {
			return nil
		}
		if err := c.restoreFilters(r, st); err != nil {
			return err
		}
		delete(c.saved, which)
		return nil
	}

	if _, ok := c.saved[which]; ok {
		return nil
	}

	mdmcfg2, err := r.PeekByte(RegMDMCFG2)
	if err != nil {
		return fmt.Errorf("failed to read MDMCFG2: %w", err)
	}
	pktctrl1, err := r.PeekByte(RegPKTCTRL1)
	if err != nil {
		return fmt.Errorf("failed to read PKTCTRL1: %w", err)
	}

	if err := r.PokeByte(RegMDMCFG2, mdmcfg2&^MDMCFG2SyncModeMask); err != nil {
		return fmt.Errorf("failed to clear sync mode: %w", err)
	}
	if err := r.PokeByte(RegPKTCTRL1, pktctrl1&^PKTCTRL1AddrChkMask); err != nil {
		// Put sync mode back before giving up
		r.PokeByte(RegMDMCFG2, mdmcfg2)
		return fmt.Errorf("failed to clear address check: %w", err)
	}

	c.saved[which] = filterState{mdmcfg2: mdmcfg2, pktctrl1: pktctrl1}
	c.logger.Debug("intercept mode enabled", slog.String("radio", which.String()))
	return nil
}

func (c *Controller) restoreFilters(r RegisterAccess, st filterState) error {
	if err := r.PokeByte(RegMDMCFG2, st.mdmcfg2); err != nil {
		return fmt.Errorf("failed to restore MDMCFG2: %w", err)
	}
	if err := r.PokeByte(RegPKTCTRL1, st.pktctrl1); err != nil {
		return fmt.Errorf("failed to restore PKTCTRL1: %w", err)
	}
	return nil
}

var _ radio.Controller = (*Controller)(nil)
