package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats aggregates solver behavior over a time window: how many
// substeps ran and how far the constraint set sat from rest afterwards.
type WindowStats struct {
	Frame      int64   `csv:"frame"`
	SimTimeSec float64 `csv:"sim_time"`
	Frames     int     `csv:"frames"`
	Substeps   int     `csv:"substeps"`

	SubstepsPerFrame float64 `csv:"substeps_per_frame"`

	ResidualMean float64 `csv:"residual_mean"`
	ResidualStd  float64 `csv:"residual_std"`
	ResidualP50  float64 `csv:"residual_p50"`
	ResidualP90  float64 `csv:"residual_p90"`
	ResidualMax  float64 `csv:"residual_max"`
}

// StatsCollector accumulates per-frame solver reports until a window of
// simulated time has passed.
type StatsCollector struct {
	windowSec float64

	simTime   float64
	elapsed   float64
	frames    int
	substeps  int
	residuals []float64
}

// NewStatsCollector creates a collector flushing every windowSec seconds
// of simulated time.
func NewStatsCollector(windowSec float64) *StatsCollector {
	if windowSec <= 0 {
		windowSec = 1
	}
	return &StatsCollector{
		windowSec: windowSec,
		residuals: make([]float64, 0, 256),
	}
}

// Record adds one frame's solver report.
func (s *StatsCollector) Record(dt float64, substeps int, residual float64) {
	s.simTime += dt
	s.elapsed += dt
	s.frames++
	s.substeps += substeps
	if substeps > 0 {
		s.residuals = append(s.residuals, residual)
	}
}

// Ready reports whether a full window has accumulated.
func (s *StatsCollector) Ready() bool {
	return s.elapsed >= s.windowSec
}

// Flush computes the window summary and resets the accumulators.
func (s *StatsCollector) Flush(frame int64) WindowStats {
	ws := WindowStats{
		Frame:      frame,
		SimTimeSec: s.simTime,
		Frames:     s.frames,
		Substeps:   s.substeps,
	}
	if s.frames > 0 {
		ws.SubstepsPerFrame = float64(s.substeps) / float64(s.frames)
	}

	if len(s.residuals) > 0 {
		mean, std := stat.MeanStdDev(s.residuals, nil)
		if len(s.residuals) < 2 {
			std = 0
		}
		sorted := make([]float64, len(s.residuals))
		copy(sorted, s.residuals)
		sort.Float64s(sorted)

		ws.ResidualMean = mean
		ws.ResidualStd = std
		ws.ResidualP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		ws.ResidualP90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
		ws.ResidualMax = sorted[len(sorted)-1]
	}

	s.elapsed = 0
	s.frames = 0
	s.substeps = 0
	s.residuals = s.residuals[:0]
	return ws
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"frame", s.Frame,
		"sim_time", s.SimTimeSec,
		"frames", s.Frames,
		"substeps", s.Substeps,
		"substeps_per_frame", s.SubstepsPerFrame,
		"residual_mean", s.ResidualMean,
		"residual_std", s.ResidualStd,
		"residual_p50", s.ResidualP50,
		"residual_p90", s.ResidualP90,
		"residual_max", s.ResidualMax,
	)
}
