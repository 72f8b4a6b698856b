package scanner

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/herlein/rfscan/pkg/logging"
	"github.com/herlein/rfscan/pkg/radio"
)

// hopEpsilon absorbs float error in (end-start)/step so that exact multiples are not floored away
const hopEpsilon = 1e-9

// ScanConfig defines the parameters of one sweep
type ScanConfig struct {
	StartFrequency float64     // MHz - first hop
	EndFrequency   float64     // MHz - exclusive upper bound
	FrequencyStep  float64     // MHz - distance between hops
	Rounds         uint        // Number of passes over the range
	Radio          radio.Which // Radio under test

	// SettleTime is the wait between entering RX and sampling
	SettleTime time.Duration
}

// DefaultConfig returns a ScanConfig with default values
func DefaultConfig() ScanConfig {
	return ScanConfig{
		StartFrequency: DefaultStartFrequency,
		EndFrequency:   DefaultEndFrequency,
		FrequencyStep:  DefaultFrequencyStep,
		Rounds:         DefaultRounds,
		Radio:          DefaultRadio,
		SettleTime:     DefaultSettleTime,
	}
}

// HopCount returns floor((End-Start)/Step), or 0 when the range or step is not usable
func (c ScanConfig) HopCount() int {
	if !(c.FrequencyStep > 0) || !(c.EndFrequency > c.StartFrequency) {
		return 0
	}
	n := math.Floor((c.EndFrequency-c.StartFrequency)/c.FrequencyStep + hopEpsilon)
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Frequency returns the frequency of hop i in MHz
func (c ScanConfig) Frequency(hop int) float64 {
	return c.StartFrequency + float64(hop)*c.FrequencyStep
}

// FrequencyHz returns the reported frequency value of hop i: round(Frequency(i) * 1000)
func (c ScanConfig) FrequencyHz(hop int) uint32 {
	return uint32(math.Round(c.Frequency(hop) * 1000))
}

// Validate performs the checks that need no radio. Range checks against the
// radio itself happen in Scanner.Run.
func (c ScanConfig) Validate() error {
	if !(c.FrequencyStep > 0) {
		return ErrInvalidStep
	}
	if c.Rounds < 1 {
		return ErrInvalidRounds
	}
	if !(c.EndFrequency > c.StartFrequency) {
		return fmt.Errorf("%w: end %.3f MHz <= start %.3f MHz", ErrInvalidRange, c.EndFrequency, c.StartFrequency)
	}
	if c.HopCount() == 0 {
		return fmt.Errorf("%w: step %.3f MHz leaves no hops", ErrInvalidRange, c.FrequencyStep)
	}
	if c.SettleTime < 0 {
		return fmt.Errorf("settle time must not be negative: %v", c.SettleTime)
	}
	return nil
}

// --- YAML Configuration File Types ---

// ConfigFile represents the YAML configuration file structure
type ConfigFile struct {
	Version string         `yaml:"version"`
	Scan    ScanConfigYAML `yaml:"scan"`
	Logging logging.Config `yaml:"logging"`
}

// ScanConfigYAML holds the sweep section of the configuration file
type ScanConfigYAML struct {
	StartMHz     float64     `yaml:"start_mhz"`
	EndMHz       float64     `yaml:"end_mhz"`
	StepMHz      float64     `yaml:"step_mhz"`
	Rounds       uint        `yaml:"rounds"`
	Radio        radio.Which `yaml:"radio"`
	SettleTimeUs uint32      `yaml:"settle_time_us"`
}

// LoadConfigFile loads scanner configuration from a YAML file
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration file for errors
func (c *ConfigFile) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("%w: %s", ErrConfigVersion, c.Version)
	}

	if err := c.ToScanConfig().Validate(); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

// ToScanConfig converts the file to a runtime ScanConfig, filling zero fields with defaults
func (c *ConfigFile) ToScanConfig() ScanConfig {
	config := DefaultConfig()

	if c.Scan.StartMHz != 0 {
		config.StartFrequency = c.Scan.StartMHz
	}
	if c.Scan.EndMHz != 0 {
		config.EndFrequency = c.Scan.EndMHz
	}
	if c.Scan.StepMHz != 0 {
		config.FrequencyStep = c.Scan.StepMHz
	}
	if c.Scan.Rounds != 0 {
		config.Rounds = c.Scan.Rounds
	}
	if c.Scan.SettleTimeUs != 0 {
		config.SettleTime = time.Duration(c.Scan.SettleTimeUs) * time.Microsecond
	}
	config.Radio = c.Scan.Radio

	return config
}

// SaveConfigFile saves scanner configuration to a YAML file
func SaveConfigFile(config *ConfigFile, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
