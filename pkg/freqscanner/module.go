// Package freqscanner exposes the frequency scanner as a named command module:
// a lookup table of settings and the "start" action, a reply transport for
// streamed results, and the packet interception hook.
package freqscanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/herlein/rfscan/pkg/logging"
	"github.com/herlein/rfscan/pkg/radio"
	"github.com/herlein/rfscan/pkg/scanner"
)

// Name is the module name used on replies and in logs
const Name = "frequency_scanner"

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSetting      = errors.New("command is not a setting")
)

// WithLogger sets the logger for the module and its scanner
func WithLogger(logger *slog.Logger) func(*Module) {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithConfig replaces the default scan settings
func WithConfig(config scanner.ScanConfig) func(*Module) {
	return func(m *Module) {
		m.config = config
	}
}

// Module is the command surface of the frequency scanner
type Module struct {
	scanner   *scanner.Scanner
	transport Transport
	logger    *slog.Logger

	commands map[string]*command

	mu     sync.Mutex
	config scanner.ScanConfig
}

// New creates a Module scanning with ctrl and streaming results to transport.
// A nil transport drops intermediate replies.
func New(ctrl radio.Controller, transport Transport, options ...func(*Module)) *Module {
	if transport == nil {
		transport = discardTransport{}
	}

	m := &Module{
		transport: transport,
		logger:    logging.Discard(),
		config:    scanner.DefaultConfig(),
		commands:  make(map[string]*command, len(commandTable)),
	}

	for _, option := range options {
		option(m)
	}

	for i := range commandTable {
		m.commands[commandTable[i].Name] = &commandTable[i]
	}
	m.scanner = scanner.New(ctrl, scanner.WithLogger(m.logger))

	return m
}

// Commands lists the available commands with their help text
func (m *Module) Commands() []Command {
	out := make([]Command, 0, len(commandTable))
	for _, c := range commandTable {
		out = append(out, c.Command)
	}
	return out
}

// Config returns a copy of the current scan settings
func (m *Module) Config() scanner.ScanConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// State returns the scanner state
func (m *Module) State() scanner.State {
	return m.scanner.State()
}

// Configure sets a named setting from its text form. Settings cannot change
// while a scan is running.
func (m *Module) Configure(name, value string) error {
	cmd, ok := m.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if cmd.set == nil {
		return fmt.Errorf("%w: %s", ErrNotSetting, name)
	}
	if m.scanner.IsRunning() {
		return scanner.ErrScanInProgress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	updated := m.config
	if err := cmd.set(&updated, value); err != nil {
		return err
	}
	m.config = updated

	m.logger.Debug("setting changed", slog.String("module", Name), slog.String("setting", name), slog.String("value", value))
	return nil
}

// Invoke runs a command. "start" runs the scan synchronously, streaming each
// result through the transport and returning the final status reply.
// A setting with no args replies with its value; with one arg it is set.
func (m *Module) Invoke(ctx context.Context, name string, args ...string) (Reply, error) {
	cmd, ok := m.commands[name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, name)
		return m.reply(name, err.Error(), 0, CodeInvalidArgument), err
	}

	if cmd.run != nil {
		if len(args) != 0 {
			err := fmt.Errorf("%w: %s takes no arguments", ErrInvalidArgument, name)
			return m.reply(name, err.Error(), 0, CodeInvalidArgument), err
		}
		return cmd.run(m, ctx)
	}

	switch len(args) {
	case 0:
		config := m.Config()
		text, value := cmd.get(&config)
		return m.reply(name, fmt.Sprintf("%s = %s", name, text), value, CodeOK), nil
	case 1:
		if err := m.Configure(name, args[0]); err != nil {
			return m.failure(name, err), err
		}
		config := m.Config()
		text, value := cmd.get(&config)
		return m.reply(name, fmt.Sprintf("%s = %s", name, text), value, CodeOK), nil
	default:
		err := fmt.Errorf("%w: %s takes at most one argument", ErrInvalidArgument, name)
		return m.reply(name, err.Error(), 0, CodeInvalidArgument), err
	}
}

// OnPacketReceived applies the scanner's interception policy
func (m *Module) OnPacketReceived(pkt radio.Packet, which radio.Which) radio.Verdict {
	return m.scanner.OnPacketReceived(pkt, which)
}

// start runs one scan and streams its results
func (m *Module) start(ctx context.Context) (Reply, error) {
	report, err := m.scanner.Run(ctx, m.Config())
	if err != nil && !errors.Is(err, scanner.ErrNoDetection) {
		return m.failure("start", err), err
	}

	for _, r := range report.Results {
		if sendErr := m.transport.Send(m.reply("start", r.Message(), r.Value, CodeOK)); sendErr != nil {
			m.logger.Warn("failed to send result",
				slog.String("module", Name),
				slog.Uint64("frequency_hz", uint64(r.FrequencyHz)),
				slog.Any("error", sendErr))
		}
	}

	return m.reply("start", report.StatusMessage(), float64(len(report.Results)), CodeOK), nil
}

func (m *Module) reply(command, message string, value float64, code Code) Reply {
	return Reply{Module: Name, Command: command, Message: message, Value: value, Code: code}
}

// failure maps an error to the reply the command channel expects
func (m *Module) failure(command string, err error) Reply {
	var rangeErr *scanner.RangeError

	switch {
	case errors.As(err, &rangeErr):
		return m.reply(command, rangeErr.Field+" is not valid", rangeErr.FreqMHz, CodeInvalidFrequency)
	case errors.Is(err, scanner.ErrInvalidStep):
		return m.reply(command, "Frequency step must be positive", 0, CodeInvalidFrequency)
	case errors.Is(err, scanner.ErrInvalidRounds):
		return m.reply(command, "Rounds must be at least 1", 0, CodeInvalidArgument)
	case errors.Is(err, scanner.ErrUnsupportedRadio):
		return m.reply(command, "Radio needs to support RSSI or Carrier Detection", 0, CodeNotImplemented)
	case errors.Is(err, scanner.ErrScanInProgress):
		return m.reply(command, "Scan already in progress", 0, CodeBusy)
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrNotSetting):
		return m.reply(command, err.Error(), 0, CodeInvalidArgument)
	default:
		return m.reply(command, err.Error(), 0, CodeInternal)
	}
}

var _ radio.Interceptor = (*Module)(nil)

// FromConfigFile builds a Module from a loaded configuration file: the logger
// comes from its logging section and the scan settings from its scan section.
// The returned closer releases the log file.
func FromConfigFile(ctrl radio.Controller, transport Transport, file *scanner.ConfigFile, options ...func(*Module)) (*Module, io.Closer, error) {
	if err := file.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := logging.New(file.Logging)
	if err != nil {
		return nil, nil, err
	}

	options = append([]func(*Module){WithLogger(logger), WithConfig(file.ToScanConfig())}, options...)
	return New(ctrl, transport, options...), closer, nil
}
