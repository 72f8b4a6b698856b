package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/herlein/rfscan/pkg/radio"
)

func TestHopCount(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		end   float64
		step  float64
		want  int
	}{
		{"divisible", 2400, 2410, 2, 5},
		{"not divisible", 2400, 2410, 3, 3},
		{"fractional step", 2400, 2401, 0.1, 10},
		{"step wider than range", 2400, 2400.5, 1, 0},
		{"default range", 2400, 2500, 1, 100},
		{"zero step", 2400, 2410, 0, 0},
		{"negative step", 2400, 2410, -1, 0},
		{"inverted range", 2410, 2400, 1, 0},
		{"empty range", 2400, 2400, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ScanConfig{StartFrequency: tt.start, EndFrequency: tt.end, FrequencyStep: tt.step}
			if got := c.HopCount(); got != tt.want {
				t.Errorf("HopCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFrequencyHz(t *testing.T) {
	c := ScanConfig{StartFrequency: 2400, EndFrequency: 2410, FrequencyStep: 2}

	want := []uint32{2400000, 2402000, 2404000, 2406000, 2408000}
	for hop, w := range want {
		if got := c.FrequencyHz(hop); got != w {
			t.Errorf("hop %d: got %d, want %d", hop, got, w)
		}
	}

	c = ScanConfig{StartFrequency: 433.05, FrequencyStep: 0.025}
	if got := c.FrequencyHz(3); got != 433125 {
		t.Errorf("fractional hop: got %d, want 433125", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.StartFrequency != 2400 || c.EndFrequency != 2500 || c.FrequencyStep != 1 {
		t.Errorf("unexpected range %+v", c)
	}
	if c.Rounds != 5 || c.Radio != radio.RadioA {
		t.Errorf("unexpected rounds/radio %+v", c)
	}
}

func TestScanConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScanConfig)
		wantErr error
	}{
		{"valid", func(*ScanConfig) {}, nil},
		{"zero step", func(c *ScanConfig) { c.FrequencyStep = 0 }, ErrInvalidStep},
		{"zero rounds", func(c *ScanConfig) { c.Rounds = 0 }, ErrInvalidRounds},
		{"inverted", func(c *ScanConfig) { c.EndFrequency = 2300 }, ErrInvalidRange},
		{"no hops", func(c *ScanConfig) { c.FrequencyStep = 500 }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	c := DefaultConfig()
	c.SettleTime = -time.Millisecond
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative settle time")
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.yaml")

	original := &ConfigFile{
		Version: "1.0",
		Scan: ScanConfigYAML{
			StartMHz:     433,
			EndMHz:       435,
			StepMHz:      0.025,
			Rounds:       3,
			Radio:        radio.RadioB,
			SettleTimeUs: 500,
		},
	}
	original.Logging.Level = "debug"

	if err := SaveConfigFile(original, path); err != nil {
		t.Fatalf("SaveConfigFile: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	c := loaded.ToScanConfig()
	if c.StartFrequency != 433 || c.EndFrequency != 435 || c.FrequencyStep != 0.025 {
		t.Errorf("unexpected range %+v", c)
	}
	if c.Rounds != 3 || c.Radio != radio.RadioB {
		t.Errorf("unexpected rounds/radio %+v", c)
	}
	if c.SettleTime != 500*time.Microsecond {
		t.Errorf("settle time = %v", c.SettleTime)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("logging level = %q", loaded.Logging.Level)
	}
}

func TestLoadConfigFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.yaml")
	data := "version: \"1.0\"\nscan:\n  radio: radiob\n  rounds: 2\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	c := loaded.ToScanConfig()
	if c.StartFrequency != DefaultStartFrequency || c.EndFrequency != DefaultEndFrequency {
		t.Errorf("expected default range, got %+v", c)
	}
	if c.Rounds != 2 || c.Radio != radio.RadioB {
		t.Errorf("unexpected rounds/radio %+v", c)
	}
	if c.SettleTime != DefaultSettleTime {
		t.Errorf("settle time = %v", c.SettleTime)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"bad version", "version: \"2.0\"\n", ErrConfigVersion},
		{"bad step", "version: \"1.0\"\nscan:\n  step_mhz: -1\n", ErrInvalidStep},
		{"bad range", "version: \"1.0\"\nscan:\n  start_mhz: 900\n  end_mhz: 800\n", ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfigFile(path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	badRadio := filepath.Join(dir, "radio.yaml")
	if err := os.WriteFile(badRadio, []byte("version: \"1.0\"\nscan:\n  radio: radioz\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(badRadio); err == nil {
		t.Error("expected error for unknown radio")
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
