package scanner

import (
	"errors"
	"testing"
)

func TestNewAccumulator(t *testing.T) {
	acc, err := NewAccumulator(RSSIAverage, 5)
	if err != nil {
		t.Fatalf("NewAccumulator: %v", err)
	}
	if acc.Len() != 5 || acc.Mode() != RSSIAverage {
		t.Fatalf("len=%d mode=%v", acc.Len(), acc.Mode())
	}

	for i, e := range acc.Entries() {
		if e.Hop != i {
			t.Errorf("entry %d has hop %d", i, e.Hop)
		}
		if e.Score() != 0 || e.Hits() != 0 || e.RSSISum() != 0 {
			t.Errorf("entry %d not zeroed: %+v", i, e)
		}
	}
}

func TestNewAccumulatorBounds(t *testing.T) {
	for _, hops := range []int{0, -1, MaxHops + 1} {
		if _, err := NewAccumulator(CarrierHitCount, hops); !errors.Is(err, ErrBufferAllocation) {
			t.Errorf("hops=%d: expected ErrBufferAllocation, got %v", hops, err)
		}
	}

	acc, err := NewAccumulator(CarrierHitCount, MaxHops)
	if err != nil {
		t.Fatalf("MaxHops: %v", err)
	}
	if acc.Len() != MaxHops {
		t.Errorf("len = %d", acc.Len())
	}
}

func TestAccumulatorCarrier(t *testing.T) {
	acc, err := NewAccumulator(CarrierHitCount, 3)
	if err != nil {
		t.Fatal(err)
	}

	acc.Add(1, 1)
	acc.Add(1, 0)
	acc.Add(1, 1)
	acc.Add(2, 0)

	entries := acc.Entries()
	if entries[0].Hits() != 0 || entries[1].Hits() != 2 || entries[2].Hits() != 0 {
		t.Errorf("unexpected hits %d %d %d", entries[0].Hits(), entries[1].Hits(), entries[2].Hits())
	}
	if entries[1].Score() != 2 {
		t.Errorf("score = %v", entries[1].Score())
	}
	if entries[1].RSSISum() != 0 {
		t.Errorf("rssi sum written in carrier mode: %v", entries[1].RSSISum())
	}
}

func TestAccumulatorRSSI(t *testing.T) {
	acc, err := NewAccumulator(RSSIAverage, 2)
	if err != nil {
		t.Fatal(err)
	}

	acc.Add(0, 10)
	acc.Add(0, 20)
	acc.Add(1, -80)

	entries := acc.Entries()
	if entries[0].RSSISum() != 30 || entries[0].Score() != 30 {
		t.Errorf("hop 0: %+v", entries[0])
	}
	if entries[1].Score() != -80 {
		t.Errorf("hop 1 score = %v", entries[1].Score())
	}
	if entries[0].Hits() != 0 {
		t.Errorf("hits written in rssi mode: %d", entries[0].Hits())
	}
}

func TestAccumulatorEntriesIsCopy(t *testing.T) {
	acc, err := NewAccumulator(RSSIAverage, 1)
	if err != nil {
		t.Fatal(err)
	}

	snapshot := acc.Entries()
	acc.Add(0, 5)
	if snapshot[0].Score() != 0 {
		t.Error("snapshot changed after Add")
	}

	acc.Release()
	if acc.Len() != 0 {
		t.Errorf("len after release = %d", acc.Len())
	}
}
