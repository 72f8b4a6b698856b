package yardstick

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrNoMarker        = errors.New("no response marker found")
	ErrIncompleteFrame = errors.New("incomplete frame")
	ErrFrameMismatch   = errors.New("response mismatch")
)

// EncodeCommand builds an EP5 command frame.
// Protocol: app(1) + cmd(1) + length(2 LE) + payload
func EncodeCommand(app, cmd uint8, payload []byte) []byte {
	packet := make([]byte, 4+len(payload))
	packet[0] = app
	packet[1] = cmd
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	copy(packet[4:], payload)
	return packet
}

// DecodeResponse extracts the first response frame from buf.
// Response format: '@'(1) + app(1) + cmd(1) + length(2 LE) + payload
//
// On success it returns the payload and the bytes following the frame. On
// ErrFrameMismatch the remainder starts after the rejected marker so the caller
// can keep scanning. On the other errors remaining is buf unchanged.
func DecodeResponse(buf []byte, app, cmd uint8) (payload, remaining []byte, err error) {
	markerIdx := bytes.IndexByte(buf, ResponseMarker)
	if markerIdx == -1 {
		return nil, buf, ErrNoMarker
	}

	data := buf[markerIdx:]
	if len(data) < 5 {
		return nil, buf, fmt.Errorf("%w: header", ErrIncompleteFrame)
	}

	gotApp := data[1]
	gotCmd := data[2]
	length := binary.LittleEndian.Uint16(data[3:5])

	totalLen := 5 + int(length)
	if len(data) < totalLen {
		return nil, buf, fmt.Errorf("%w: have %d, need %d", ErrIncompleteFrame, len(data), totalLen)
	}

	if gotApp != app || gotCmd != cmd {
		return nil, buf[markerIdx+1:], fmt.Errorf("%w: got app=0x%02X cmd=0x%02X, expected app=0x%02X cmd=0x%02X",
			ErrFrameMismatch, gotApp, gotCmd, app, cmd)
	}

	payload = make([]byte, length)
	copy(payload, data[5:totalLen])
	return payload, data[totalLen:], nil
}

// peekPayload is the SYS_CMD_PEEK payload: bytecount(2 LE) + address(2 LE)
func peekPayload(address, length uint16) []byte {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], length)
	binary.LittleEndian.PutUint16(payload[2:4], address)
	return payload
}

// pokePayload is the SYS_CMD_POKE payload: address(2 LE) + data
func pokePayload(address uint16, data []byte) []byte {
	payload := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(payload[0:2], address)
	copy(payload[2:], data)
	return payload
}
