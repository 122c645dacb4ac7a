package telemetry

import (
	"math"
	"testing"
)

func TestStatsCollector_WindowAccumulation(t *testing.T) {
	sc := NewStatsCollector(1.0)

	if sc.Ready() {
		t.Fatal("collector ready before any records")
	}

	// 60 frames of 1/60s fills exactly one window.
	for i := 0; i < 60; i++ {
		sc.Record(1.0/60, 4, 0.001)
	}
	if !sc.Ready() {
		t.Fatal("collector not ready after a full window")
	}

	ws := sc.Flush(60)
	if ws.Frames != 60 {
		t.Errorf("frames = %d, want 60", ws.Frames)
	}
	if ws.Substeps != 240 {
		t.Errorf("substeps = %d, want 240", ws.Substeps)
	}
	if math.Abs(ws.SubstepsPerFrame-4) > 1e-9 {
		t.Errorf("substeps_per_frame = %v, want 4", ws.SubstepsPerFrame)
	}
	if math.Abs(ws.ResidualMean-0.001) > 1e-12 {
		t.Errorf("residual_mean = %v, want 0.001", ws.ResidualMean)
	}

	if sc.Ready() {
		t.Error("collector still ready after flush")
	}
}

func TestStatsCollector_ResidualSpread(t *testing.T) {
	sc := NewStatsCollector(1.0)

	residuals := []float64{0.001, 0.002, 0.003, 0.004, 0.05}
	for _, r := range residuals {
		sc.Record(0.25, 1, r)
	}

	ws := sc.Flush(5)
	if ws.ResidualMax != 0.05 {
		t.Errorf("residual_max = %v, want 0.05", ws.ResidualMax)
	}
	if ws.ResidualMean <= 0.001 || ws.ResidualMean >= 0.05 {
		t.Errorf("residual_mean = %v, outside data range", ws.ResidualMean)
	}
	if ws.ResidualStd <= 0 {
		t.Errorf("residual_std = %v, want > 0", ws.ResidualStd)
	}
	if ws.ResidualP90 < ws.ResidualP50 {
		t.Errorf("p90 %v below p50 %v", ws.ResidualP90, ws.ResidualP50)
	}
}

func TestStatsCollector_IdleFramesExcludedFromResiduals(t *testing.T) {
	sc := NewStatsCollector(1.0)

	// Frames that ran no substeps carry no meaningful residual.
	sc.Record(0.5, 0, 0)
	sc.Record(0.5, 2, 0.01)

	ws := sc.Flush(2)
	if ws.Frames != 2 {
		t.Errorf("frames = %d, want 2", ws.Frames)
	}
	if math.Abs(ws.ResidualMean-0.01) > 1e-12 {
		t.Errorf("residual_mean = %v, want 0.01 (idle frame excluded)", ws.ResidualMean)
	}
}

func TestStatsCollector_SimTimePersistsAcrossWindows(t *testing.T) {
	sc := NewStatsCollector(0.5)

	for i := 0; i < 30; i++ {
		sc.Record(1.0/60, 1, 0.001)
	}
	first := sc.Flush(30)

	for i := 0; i < 30; i++ {
		sc.Record(1.0/60, 1, 0.001)
	}
	second := sc.Flush(60)

	if second.SimTimeSec <= first.SimTimeSec {
		t.Errorf("sim time did not advance: %v then %v", first.SimTimeSec, second.SimTimeSec)
	}
}
