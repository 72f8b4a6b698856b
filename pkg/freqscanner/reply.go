package freqscanner

import "fmt"

// Code is the result code carried on every reply
type Code uint8

const (
	CodeOK Code = iota
	CodeInvalidFrequency
	CodeNotImplemented
	CodeBusy
	CodeInvalidArgument
	CodeInternal
)

// String returns the code name
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidFrequency:
		return "invalid-frequency"
	case CodeNotImplemented:
		return "not-implemented"
	case CodeBusy:
		return "busy"
	case CodeInvalidArgument:
		return "invalid-argument"
	case CodeInternal:
		return "internal"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Reply is one message on the reply channel
type Reply struct {
	Module  string
	Command string
	Message string
	Value   float64
	Code    Code
}

// Transport delivers intermediate replies, e.g. one per ranked frequency
type Transport interface {
	Send(reply Reply) error
}

// TransportFunc adapts a function to Transport
type TransportFunc func(reply Reply) error

// Send implements Transport
func (f TransportFunc) Send(reply Reply) error {
	return f(reply)
}

type discardTransport struct{}

func (discardTransport) Send(Reply) error { return nil }
