package freqscanner

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/herlein/rfscan/pkg/radio"
	"github.com/herlein/rfscan/pkg/scanner"
)

// Command describes one entry of the command table
type Command struct {
	Name string
	Help string
}

// command is a table entry. Settings have get/set; actions have run.
type command struct {
	Command
	get func(c *scanner.ScanConfig) (string, float64)
	set func(c *scanner.ScanConfig, value string) error
	run func(m *Module, ctx context.Context) (Reply, error)
}

// commandTable lists the module's commands in help order
var commandTable = []command{
	{
		Command: Command{Name: "start", Help: "Starts frequency scan"},
		run:     (*Module).start,
	},
	{
		Command: Command{Name: "freq_step", Help: "Frequency step in Mhz (default: 1)"},
		get: func(c *scanner.ScanConfig) (string, float64) {
			return formatMHz(c.FrequencyStep), c.FrequencyStep
		},
		set: floatSetter(func(c *scanner.ScanConfig, v float64) { c.FrequencyStep = v }),
	},
	{
		Command: Command{Name: "start_freq", Help: "Start frequency in Mhz (default: 2400)"},
		get: func(c *scanner.ScanConfig) (string, float64) {
			return formatMHz(c.StartFrequency), c.StartFrequency
		},
		set: floatSetter(func(c *scanner.ScanConfig, v float64) { c.StartFrequency = v }),
	},
	{
		Command: Command{Name: "end_freq", Help: "End frequency in Mhz (default: 2500)"},
		get: func(c *scanner.ScanConfig) (string, float64) {
			return formatMHz(c.EndFrequency), c.EndFrequency
		},
		set: floatSetter(func(c *scanner.ScanConfig, v float64) { c.EndFrequency = v }),
	},
	{
		Command: Command{Name: "which_radio", Help: "Radio to use (default: RadioA)"},
		get: func(c *scanner.ScanConfig) (string, float64) {
			return c.Radio.String(), float64(c.Radio)
		},
		set: func(c *scanner.ScanConfig, value string) error {
			which, err := radio.ParseWhich(value)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			c.Radio = which
			return nil
		},
	},
	{
		Command: Command{Name: "rounds", Help: "How many times sweep on frequency range (default: 5)"},
		get: func(c *scanner.ScanConfig) (string, float64) {
			return strconv.FormatUint(uint64(c.Rounds), 10), float64(c.Rounds)
		},
		set: func(c *scanner.ScanConfig, value string) error {
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return fmt.Errorf("%w: rounds %q", ErrInvalidArgument, value)
			}
			c.Rounds = uint(n)
			return nil
		},
	},
}

func floatSetter(apply func(c *scanner.ScanConfig, v float64)) func(*scanner.ScanConfig, string) error {
	return func(c *scanner.ScanConfig, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q is not a frequency", ErrInvalidArgument, value)
		}
		apply(c, v)
		return nil
	}
}

func formatMHz(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
