package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/herlein/rfscan/pkg/logging"
	"github.com/herlein/rfscan/pkg/radio"
)

// State is the scanner's module-level state
type State uint8

const (
	StateIdle State = iota
	StateScanning
)

// String returns the state name
func (s State) String() string {
	if s == StateScanning {
		return "scanning"
	}
	return "idle"
}

// WithLogger sets the logger for the scanner
func WithLogger(logger *slog.Logger) func(*Scanner) {
	return func(s *Scanner) {
		s.logger = logger.With(slog.String("module", "frequency_scanner"))
	}
}

// Scanner sweeps one radio across a frequency range. A Scanner runs one scan
// at a time; it owns the radio exclusively while scanning.
type Scanner struct {
	radio  radio.Controller
	logger *slog.Logger

	running atomic.Bool

	// Packet interception policy, read by OnPacketReceived
	mu     sync.RWMutex
	state  State
	target radio.Which
}

// New creates a Scanner driving ctrl
func New(ctrl radio.Controller, options ...func(*Scanner)) *Scanner {
	s := &Scanner{
		radio:  ctrl,
		logger: logging.Discard(),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// State returns the current state
func (s *Scanner) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning returns true while Run is in progress
func (s *Scanner) IsRunning() bool {
	return s.running.Load()
}

// OnPacketReceived discards every packet arriving on the radio under test
// while scanning and passes everything else through.
func (s *Scanner) OnPacketReceived(_ radio.Packet, which radio.Which) radio.Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateScanning && which == s.target {
		return radio.Discard
	}
	return radio.PassThrough
}

// Run validates config, sweeps the range config.Rounds times and returns the
// ranked report. It blocks for the whole sweep.
//
// When the sweep completes without activity Run returns ErrNoDetection
// together with a report that carries the scan statistics and no results.
// Cancelling ctx aborts the sweep between hops; the radio is released on
// every return path.
func (s *Scanner) Run(ctx context.Context, config ScanConfig) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	if err := s.validate(config); err != nil {
		s.logger.Warn("scan rejected", slog.Any("error", err))
		return nil, err
	}

	caps := ProbeCapabilities(s.radio, config.Radio)
	mode, err := SelectMode(caps)
	if err != nil {
		s.logger.Warn("scan rejected", slog.Any("error", err), slog.String("radio", config.Radio.String()))
		return nil, err
	}

	hops := config.HopCount()
	acc, err := NewAccumulator(mode, hops)
	if err != nil {
		s.logger.Error("scan aborted", slog.Any("error", err))
		return nil, err
	}
	defer acc.Release()

	s.logger.Info("starting scan",
		slog.String("radio", config.Radio.String()),
		slog.String("mode", mode.String()),
		slog.String("start", humanMHz(config.StartFrequency)),
		slog.String("end", humanMHz(config.EndFrequency)),
		slog.String("step", humanMHz(config.FrequencyStep)),
		slog.Int("hops", hops),
		slog.Uint64("rounds", uint64(config.Rounds)))

	report := &Report{
		Mode:    mode,
		Radio:   config.Radio.String(),
		Hops:    hops,
		Rounds:  config.Rounds,
		Started: time.Now(),
	}

	if err := s.scan(ctx, config, NewStrategy(mode, s.radio, config.Radio), acc, report); err != nil {
		s.logger.Error("scan aborted", slog.Any("error", err))
		return nil, err
	}
	report.Duration = time.Since(report.Started)

	ranked := Rank(acc.Entries(), MaxReportedResults)
	report.Results = buildResults(config, ranked)

	s.logger.Info("scan complete",
		slog.Int("results", len(report.Results)),
		slog.Int("skipped", report.SkippedSamples),
		slog.Duration("duration", report.Duration))

	if !report.Detected() {
		return report, ErrNoDetection
	}
	return report, nil
}

// validate checks the step and round count, then probes both bounds against the radio
func (s *Scanner) validate(config ScanConfig) error {
	if !(config.FrequencyStep > 0) {
		return ErrInvalidStep
	}
	if config.Rounds < 1 {
		return ErrInvalidRounds
	}
	if config.SettleTime < 0 {
		return fmt.Errorf("settle time must not be negative: %v", config.SettleTime)
	}

	if err := s.radio.SetFrequency(config.StartFrequency, config.Radio); err != nil {
		return &RangeError{Field: "startFrequency", FreqMHz: config.StartFrequency, Err: err}
	}
	if err := s.radio.SetFrequency(config.EndFrequency, config.Radio); err != nil {
		return &RangeError{Field: "endFrequency", FreqMHz: config.EndFrequency, Err: err}
	}
	if config.EndFrequency <= config.StartFrequency || config.HopCount() == 0 {
		return &RangeError{Field: "endFrequency", FreqMHz: config.EndFrequency}
	}

	return nil
}

// scan enters the Scanning state, sweeps, and always leaves it again
func (s *Scanner) scan(ctx context.Context, config ScanConfig, strategy *Strategy, acc *Accumulator, report *Report) error {
	defer s.leaveScanning(config.Radio)

	if err := s.enterScanning(config.Radio); err != nil {
		return err
	}

	for round := uint(0); round < config.Rounds; round++ {
		s.logger.Debug("scan round", slog.Uint64("round", uint64(round+1)), slog.Uint64("rounds", uint64(config.Rounds)))

		for hop := 0; hop < acc.Len(); hop++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("scan cancelled in round %d: %w", round+1, err)
			}

			if err := s.sampleHop(config, strategy, acc, round, hop); err != nil {
				report.SkippedSamples++
				s.logger.Warn("hop skipped", slog.Any("error", err))
			}
		}
	}

	return nil
}

// sampleHop tunes, listens and samples one hop, leaving the radio idle
func (s *Scanner) sampleHop(config ScanConfig, strategy *Strategy, acc *Accumulator, round uint, hop int) error {
	which := config.Radio
	freq := config.Frequency(hop)

	if err := s.radio.SetFrequency(freq, which); err != nil {
		return &HopError{Round: round, Hop: hop, FreqMHz: freq, Op: "tune", Err: err}
	}
	s.logger.Debug("tuned", slog.Int("hop", hop), slog.String("frequency", humanMHz(freq)))

	if err := s.radio.SetMode(radio.ModeRX, which); err != nil {
		s.idle(which)
		return &HopError{Round: round, Hop: hop, FreqMHz: freq, Op: "rx", Err: err}
	}

	if config.SettleTime > 0 {
		time.Sleep(config.SettleTime)
	}

	sample, err := strategy.Sample()
	s.idle(which)
	if err != nil {
		return &HopError{Round: round, Hop: hop, FreqMHz: freq, Op: "sample", Err: err}
	}

	acc.Add(hop, sample)
	return nil
}

func (s *Scanner) idle(which radio.Which) {
	if err := s.radio.SetMode(radio.ModeIdle, which); err != nil {
		s.logger.Warn("failed to return radio to idle", slog.Any("error", err))
	}
}

// enterScanning installs the discard policy and puts the radio in intercept mode
func (s *Scanner) enterScanning(which radio.Which) error {
	s.mu.Lock()
	s.state = StateScanning
	s.target = which
	s.mu.Unlock()

	if err := s.radio.SetInterceptMode(true, which); err != nil {
		if radio.IsNotImplemented(err) {
			s.logger.Warn("radio has no intercept mode, discarding packets in software", slog.String("radio", which.String()))
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInterceptMode, err)
	}
	return nil
}

// leaveScanning clears intercept mode and the discard policy
func (s *Scanner) leaveScanning(which radio.Which) {
	if err := s.radio.SetInterceptMode(false, which); err != nil && !radio.IsNotImplemented(err) {
		s.logger.Error("failed to disable intercept mode", slog.Any("error", err))
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// humanMHz renders a frequency in MHz with an SI prefix, e.g. "2.404 GHz"
func humanMHz(mhz float64) string {
	value, prefix := humanize.ComputeSI(mhz * 1e6)
	return fmt.Sprintf("%0.3f %sHz", value, prefix)
}

var _ radio.Interceptor = (*Scanner)(nil)
