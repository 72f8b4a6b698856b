package yardstick

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
)

// ErrUnsupportedChip is returned for a device whose radio is not a CC1111
var ErrUnsupportedChip = errors.New("unsupported radio chip")

// Device represents a YardStick One USB device
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	epOut        *gousb.OutEndpoint
	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int

	// Serializes request/response pairs on EP5
	mu      sync.Mutex
	recvBuf []byte
}

// FindAllDevices finds all connected YardStick One devices
func FindAllDevices(usb *gousb.Context) ([]*Device, error) {
	devices := []*Device{}

	usbDevices, err := usb.OpenDevices(func(descriptor *gousb.DeviceDesc) bool {
		return descriptor.Vendor == gousb.ID(VendorID) && descriptor.Product == gousb.ID(ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}

	return devices, nil
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	desc := usbDev.Desc
	device := &Device{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          desc.Bus,
		Address:      desc.Address,
		recvBuf:      make([]byte, 0, EP5OutBufferSize),
	}

	device.drainReceiveBuffer()

	return device, nil
}

// Close puts the radio back in IDLE and releases the USB resources
func (d *Device) Close() error {
	if d.epOut != nil {
		d.strobeIdleNoWait()
	}

	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

// drainReceiveBuffer discards stale data left on EP5 IN by a previous session
func (d *Device) drainReceiveBuffer() {
	buf := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
	d.recvBuf = d.recvBuf[:0]
}

// strobeIdleNoWait pokes SIDLE into RFST without waiting for the response
func (d *Device) strobeIdleNoWait() {
	packet := EncodeCommand(AppSystem, SysCmdPoke, pokePayload(RegRFST, []byte{RFSTSidle}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.epOut.WriteContext(ctx, packet)
}

// String returns a human-readable description of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", d.Manufacturer, d.Product, d.Serial)
}

// Send sends a command to the device via EP5 and waits for its response
func (d *Device) Send(app uint8, cmd uint8, payload []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	packet := EncodeCommand(app, cmd, payload)

	writeCtx, writeCancel := context.WithTimeout(context.Background(), timeout)
	n, err := d.epOut.WriteContext(writeCtx, packet)
	writeCancel()
	if err != nil {
		if writeCtx.Err() != nil || isTransientUSBError(err) {
			return nil, fmt.Errorf("write timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to write to EP5: %w", err)
	}
	if n != len(packet) {
		return nil, fmt.Errorf("short write: wrote %d of %d bytes", n, len(packet))
	}

	return d.recv(app, cmd, timeout)
}

// recv reads until a response for app/cmd is buffered. Caller holds d.mu.
func (d *Device) recv(app uint8, cmd uint8, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 512)

	for {
		for {
			payload, remaining, err := DecodeResponse(d.recvBuf, app, cmd)
			if err == nil {
				d.recvBuf = append(d.recvBuf[:0], remaining...)
				return payload, nil
			}
			if !errors.Is(err, ErrFrameMismatch) {
				break
			}
			// Skip responses meant for someone else
			d.recvBuf = append(d.recvBuf[:0], remaining...)
		}

		remainingTime := time.Until(deadline)
		if remainingTime <= 0 {
			return nil, fmt.Errorf("timeout waiting for response app=0x%02X cmd=0x%02X", app, cmd)
		}

		readTimeout := usbReadSlice
		if remainingTime < readTimeout {
			readTimeout = remainingTime
		}

		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()

		if err != nil {
			if ctx.Err() != nil || isTransientUSBError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read from EP5: %w", err)
		}

		d.recvBuf = append(d.recvBuf, buf[:n]...)
	}
}

func isTransientUSBError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "cancel")
}

// Ping sends a ping command and verifies the echo
func (d *Device) Ping(data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPing, data, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	if len(response) != len(data) {
		return fmt.Errorf("ping response length mismatch: sent %d bytes, got %d", len(data), len(response))
	}
	for i := range data {
		if response[i] != data[i] {
			return fmt.Errorf("ping response data mismatch at byte %d: sent 0x%02X, got 0x%02X", i, data[i], response[i])
		}
	}

	return nil
}

// Peek reads bytes from device memory
func (d *Device) Peek(address uint16, length uint16) ([]byte, error) {
	response, err := d.Send(AppSystem, SysCmdPeek, peekPayload(address, length), USBDefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("peek failed at 0x%04X: %w", address, err)
	}
	return response, nil
}

// PeekByte reads a single byte from device memory
func (d *Device) PeekByte(address uint16) (uint8, error) {
	data, err := d.Peek(address, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 1 {
		return 0, fmt.Errorf("peek returned no data")
	}
	return data[0], nil
}

// Poke writes bytes to device memory
func (d *Device) Poke(address uint16, data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPoke, pokePayload(address, data), USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("poke failed at 0x%04X: %w", address, err)
	}

	// Response contains bytes left (should be 0 on success)
	if len(response) >= 2 {
		if bytesLeft := binary.LittleEndian.Uint16(response[0:2]); bytesLeft != 0 {
			return fmt.Errorf("poke incomplete: %d bytes left", bytesLeft)
		}
	}

	return nil
}

// PokeByte writes a single byte to device memory
func (d *Device) PokeByte(address uint16, value uint8) error {
	return d.Poke(address, []byte{value})
}

// GetPartNum returns the chip part number
func (d *Device) GetPartNum() (uint8, error) {
	response, err := d.Send(AppSystem, SysCmdPartNum, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get part number: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("empty part number response")
	}
	return response[0], nil
}

// identifier is what verifyDevice needs from a device
type identifier interface {
	Ping(data []byte) error
	GetPartNum() (uint8, error)
}

var pingPattern = []byte{'r', 'f', 's', 'c', 'a', 'n'}

// verifyDevice checks that the firmware answers and the radio is a CC1111
func verifyDevice(d identifier) error {
	if err := d.Ping(pingPattern); err != nil {
		return err
	}
	part, err := d.GetPartNum()
	if err != nil {
		return err
	}
	if part != PartNumCC1111 {
		return fmt.Errorf("%w: part number 0x%02X", ErrUnsupportedChip, part)
	}
	return nil
}

// SetAmpMode enables or disables the YardStick One front-end amplifiers
func (d *Device) SetAmpMode(mode uint8) error {
	if _, err := d.Send(AppNIC, NICSetAmpMode, []byte{mode}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set amplifier mode: %w", err)
	}
	return nil
}
