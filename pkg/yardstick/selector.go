package yardstick

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// ErrNoDevice is returned when no attached YardStick One matches a selector
var ErrNoDevice = errors.New("no matching YardStick One")

// DeviceSelector specifies how to identify a YardStick One device
// Supported formats:
//   - ""           : Use first available device
//   - "serial"     : Match by serial number (e.g., "009a")
//   - "bus:addr"   : Match by USB bus and address (e.g., "1:10")
//   - "#N"         : Use Nth device, 0-indexed (e.g., "#0", "#1")
type DeviceSelector string

// SelectorKind is the matching rule of a parsed selector
type SelectorKind uint8

const (
	SelectFirst SelectorKind = iota
	SelectIndex
	SelectBusAddr
	SelectSerial
)

// Selector is a parsed DeviceSelector
type Selector struct {
	Kind    SelectorKind
	Index   int
	Bus     int
	Address int
	Serial  string
}

// Parse validates the selector syntax
func (s DeviceSelector) Parse() (Selector, error) {
	sel := strings.TrimSpace(string(s))

	if sel == "" {
		return Selector{Kind: SelectFirst}, nil
	}

	if strings.HasPrefix(sel, "#") {
		index, err := strconv.Atoi(sel[1:])
		if err != nil || index < 0 {
			return Selector{}, fmt.Errorf("invalid device index: %s", sel)
		}
		return Selector{Kind: SelectIndex, Index: index}, nil
	}

	if strings.Contains(sel, ":") {
		parts := strings.SplitN(sel, ":", 2)
		bus, err := strconv.Atoi(parts[0])
		if err != nil {
			return Selector{}, fmt.Errorf("invalid bus number: %s", parts[0])
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return Selector{}, fmt.Errorf("invalid address number: %s", parts[1])
		}
		return Selector{Kind: SelectBusAddr, Bus: bus, Address: addr}, nil
	}

	return Selector{Kind: SelectSerial, Serial: sel}, nil
}

// DeviceInfo identifies an enumerated device
type DeviceInfo struct {
	Serial  string
	Bus     int
	Address int
}

// Match returns the index into devices selected by s, skipping indexes in taken
func (s Selector) Match(devices []DeviceInfo, taken map[int]bool) (int, error) {
	switch s.Kind {
	case SelectFirst:
		for i := range devices {
			if !taken[i] {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: all %d devices in use", ErrNoDevice, len(devices))

	case SelectIndex:
		if s.Index >= len(devices) {
			return -1, fmt.Errorf("%w: index %d out of range (found %d devices)", ErrNoDevice, s.Index, len(devices))
		}
		if taken[s.Index] {
			return -1, fmt.Errorf("device #%d selected twice", s.Index)
		}
		return s.Index, nil

	case SelectBusAddr:
		for i, d := range devices {
			if d.Bus == s.Bus && d.Address == s.Address {
				if taken[i] {
					return -1, fmt.Errorf("device %d:%d selected twice", s.Bus, s.Address)
				}
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w at bus %d address %d", ErrNoDevice, s.Bus, s.Address)

	default:
		match := -1
		for i, d := range devices {
			if d.Serial != s.Serial {
				continue
			}
			if match != -1 {
				return -1, fmt.Errorf("multiple devices found with serial %s; use bus:addr format (e.g., 1:10) or index format (e.g., #0)", s.Serial)
			}
			match = i
		}
		if match == -1 {
			return -1, fmt.Errorf("%w with serial %s", ErrNoDevice, s.Serial)
		}
		if taken[match] {
			return -1, fmt.Errorf("device %s selected twice", s.Serial)
		}
		return match, nil
	}
}

// SelectDevices opens one YardStick One per selector, in order. Devices not
// selected are closed.
func SelectDevices(usb *gousb.Context, selectors ...DeviceSelector) ([]*Device, error) {
	parsed := make([]Selector, len(selectors))
	for i, s := range selectors {
		p, err := s.Parse()
		if err != nil {
			return nil, err
		}
		parsed[i] = p
	}

	devices, err := FindAllDevices(usb)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no YardStick One devices found", ErrNoDevice)
	}

	infos := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		infos[i] = DeviceInfo{Serial: d.Serial, Bus: d.Bus, Address: d.Address}
	}

	taken := make(map[int]bool)
	selected := make([]*Device, 0, len(parsed))
	for _, p := range parsed {
		i, err := p.Match(infos, taken)
		if err != nil {
			closeAll(devices)
			return nil, err
		}
		taken[i] = true
		selected = append(selected, devices[i])
	}

	for i, d := range devices {
		if !taken[i] {
			d.Close()
		}
	}

	return selected, nil
}

func closeAll(devices []*Device) {
	for _, d := range devices {
		d.Close()
	}
}
