package scanner

import (
	"fmt"
	"time"
)

// Result is one ranked frequency
type Result struct {
	FrequencyHz uint32
	Mode        DetectionMode
	Value       float64 // hit count, or average RSSI over rounds
	Hop         int
}

// Message returns the human-readable label sent with the result value
func (r Result) Message() string {
	if r.Mode == CarrierHitCount {
		return fmt.Sprintf("%d Hz carrier detections", r.FrequencyHz)
	}
	return fmt.Sprintf("%d Hz average RSSI", r.FrequencyHz)
}

// Report holds the ranked results of one scan
type Report struct {
	Results []Result
	Mode    DetectionMode
	Radio   string
	Hops    int
	Rounds  uint

	// SkippedSamples counts hop/round pairs lost to radio failures
	SkippedSamples int

	Started  time.Time
	Duration time.Duration
}

// Detected reports whether any frequency showed activity
func (r *Report) Detected() bool {
	return len(r.Results) > 0
}

// StatusMessage returns the terminal status line of the scan
func (r *Report) StatusMessage() string {
	if !r.Detected() {
		return "Nothing detected"
	}
	return fmt.Sprintf("Sending top %d frequencies", len(r.Results))
}

// buildResults converts ranked evidence to results
func buildResults(config ScanConfig, ranked []Evidence) []Result {
	results := make([]Result, 0, len(ranked))
	for _, e := range ranked {
		value := e.Score()
		if e.Mode() == RSSIAverage {
			value = e.RSSISum() / float64(config.Rounds)
		}
		results = append(results, Result{
			FrequencyHz: config.FrequencyHz(e.Hop),
			Mode:        e.Mode(),
			Value:       value,
			Hop:         e.Hop,
		})
	}
	return results
}
