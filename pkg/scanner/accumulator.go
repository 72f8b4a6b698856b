package scanner

import "fmt"

// Evidence is the activity accumulated for one hop. Only the field matching
// the accumulator's mode is ever written.
type Evidence struct {
	Hop     int
	mode    DetectionMode
	hits    uint32  // CarrierHitCount
	rssiSum float64 // RSSIAverage
}

// Mode returns the detection mode the evidence was gathered in
func (e Evidence) Mode() DetectionMode {
	return e.mode
}

// Hits returns the carrier hit count (CarrierHitCount only)
func (e Evidence) Hits() uint32 {
	return e.hits
}

// RSSISum returns the summed RSSI readings (RSSIAverage only)
func (e Evidence) RSSISum() float64 {
	return e.rssiSum
}

// Score returns the sortable value of the evidence
func (e Evidence) Score() float64 {
	if e.mode == CarrierHitCount {
		return float64(e.hits)
	}
	return e.rssiSum
}

// Accumulator holds one Evidence slot per hop for the duration of one scan
type Accumulator struct {
	mode    DetectionMode
	entries []Evidence
}

// NewAccumulator allocates a zeroed buffer of hops entries
func NewAccumulator(mode DetectionMode, hops int) (*Accumulator, error) {
	if hops <= 0 || hops > MaxHops {
		return nil, fmt.Errorf("%w: %d hops (max %d)", ErrBufferAllocation, hops, MaxHops)
	}

	entries := make([]Evidence, hops)
	for i := range entries {
		entries[i] = Evidence{Hop: i, mode: mode}
	}
	return &Accumulator{mode: mode, entries: entries}, nil
}

// Len returns the number of hops
func (a *Accumulator) Len() int {
	return len(a.entries)
}

// Mode returns the accumulator's detection mode
func (a *Accumulator) Mode() DetectionMode {
	return a.mode
}

// Add accumulates one sample into a hop. Carrier samples count as a hit when non-zero.
func (a *Accumulator) Add(hop int, sample float64) {
	e := &a.entries[hop]
	if a.mode == CarrierHitCount {
		if sample != 0 {
			e.hits++
		}
		return
	}
	e.rssiSum += sample
}

// Entries returns a copy of the per-hop evidence in hop order
func (a *Accumulator) Entries() []Evidence {
	out := make([]Evidence, len(a.entries))
	copy(out, a.entries)
	return out
}

// Release drops the buffer; the accumulator is empty afterwards
func (a *Accumulator) Release() {
	a.entries = nil
}
