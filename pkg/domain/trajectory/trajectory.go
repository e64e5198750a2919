package trajectory

import (
	"log/slog"
	"time"

	"github.com/rouleur/coach/pkg/domain/wellness"
)

// Trend labels the direction of a rolling 4-week metric.
type Trend string

const (
	TrendBuilding  Trend = "building"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Point is one day of the trailing fitness series (newest first).
type Point struct {
	Date time.Time
	CTL  float64
	EFTP float64 // 0 when the platform has no estimate for the day
}

// Snapshot is one sampled weekly point, most-recent-first.
type Snapshot struct {
	Date time.Time
	CTL  float64
	EFTP float64
}

// Trajectory is the 4-week fitness picture with derived trends and
// phase-readiness flags. Recomputed every invocation, never mutated in place.
type Trajectory struct {
	Snapshots []Snapshot
	CTLDeltas []float64 // week-over-week, newest delta first

	CTLTrend    Trend
	Consistency float64 // fraction of weeks with positive CTL delta

	EFTPTrend   Trend
	EFTPOnTrack *bool // nil when eFTP data is missing

	RecoveryTrend       Trend
	RecoverySustainable bool

	BaseComplete      bool
	BuildComplete     bool
	ReadyForSpecialty bool
	ReadyForTaper     bool

	Insufficient bool // fewer than 2 weekly snapshots
}

const (
	buildingMeanDelta = 3.0 // mean weekly CTL gain for "building"
	eftpStableBand    = 1.0 // W/week band treated as stable

	baseCompleteCTL      = 40.0
	specialtyCTL         = 50.0
	taperCTL             = 60.0
	baseConsistency      = 0.6
	buildCompleteWithin  = 5.0 // eFTP within this many W of target
	buildCompletePortion = 0.9 // or >=90% of target
)

// Analyze samples the trailing daily series into up to 4 weekly snapshots and
// derives trend labels and readiness flags. Missing eFTP data degrades to a
// stable trend with OnTrack unset; it never fails.
func Analyze(logger *slog.Logger, points []Point, wellnessWindow []wellness.Record, targetEFTP float64) Trajectory {
	traj := Trajectory{
		CTLTrend:      TrendStable,
		EFTPTrend:     TrendStable,
		RecoveryTrend: TrendStable,
	}

	// One snapshot per 7-day boundary, most-recent-first.
	for i := 0; i < len(points) && len(traj.Snapshots) < 4; i += 7 {
		p := points[i]
		traj.Snapshots = append(traj.Snapshots, Snapshot{Date: p.Date, CTL: p.CTL, EFTP: p.EFTP})
	}

	if len(traj.Snapshots) < 2 {
		traj.Insufficient = true
		logger.Warn("trajectory: insufficient history", "snapshots", len(traj.Snapshots))
		return traj
	}

	var positive int
	for i := 0; i < len(traj.Snapshots)-1; i++ {
		delta := traj.Snapshots[i].CTL - traj.Snapshots[i+1].CTL
		traj.CTLDeltas = append(traj.CTLDeltas, delta)
		if delta > 0 {
			positive++
		}
	}
	traj.Consistency = float64(positive) / float64(len(traj.CTLDeltas))
	traj.CTLTrend = classifyCTLTrend(traj.CTLDeltas)

	traj.EFTPTrend, traj.EFTPOnTrack = classifyEFTP(traj.Snapshots, targetEFTP)
	traj.RecoveryTrend = classifyRecoveryTrend(wellnessWindow)
	traj.RecoverySustainable = traj.RecoveryTrend != TrendDeclining

	currentCTL := traj.Snapshots[0].CTL
	traj.BaseComplete = currentCTL >= baseCompleteCTL &&
		traj.CTLTrend != TrendDeclining &&
		traj.Consistency >= baseConsistency
	traj.BuildComplete = traj.EFTPOnTrack != nil && *traj.EFTPOnTrack
	traj.ReadyForSpecialty = traj.BaseComplete &&
		currentCTL >= specialtyCTL &&
		traj.RecoverySustainable
	traj.ReadyForTaper = traj.BuildComplete && currentCTL >= taperCTL

	logger.Debug("trajectory: analyzed",
		"ctl_trend", traj.CTLTrend,
		"consistency", traj.Consistency,
		"recovery_trend", traj.RecoveryTrend,
		"base_complete", traj.BaseComplete,
		"ready_for_taper", traj.ReadyForTaper,
	)

	return traj
}

func classifyCTLTrend(deltas []float64) Trend {
	if len(deltas) == 0 {
		return TrendStable
	}
	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / float64(len(deltas))
	switch {
	case mean >= buildingMeanDelta:
		return TrendBuilding
	case mean >= 0:
		return TrendStable
	default:
		return TrendDeclining
	}
}

// classifyEFTP uses a +/-1 W/week band for "stable" and reports whether the
// athlete is on track for the target threshold estimate.
func classifyEFTP(snapshots []Snapshot, targetEFTP float64) (Trend, *bool) {
	var deltas []float64
	for i := 0; i < len(snapshots)-1; i++ {
		if snapshots[i].EFTP <= 0 || snapshots[i+1].EFTP <= 0 {
			continue
		}
		deltas = append(deltas, snapshots[i].EFTP-snapshots[i+1].EFTP)
	}
	if len(deltas) == 0 {
		return TrendStable, nil
	}

	var sum float64
	for _, d := range deltas {
		sum += d
	}
	mean := sum / float64(len(deltas))

	trend := TrendStable
	if mean > eftpStableBand {
		trend = TrendBuilding
	} else if mean < -eftpStableBand {
		trend = TrendDeclining
	}

	if targetEFTP <= 0 {
		return trend, nil
	}
	current := snapshots[0].EFTP
	onTrack := current >= targetEFTP-buildCompleteWithin ||
		current >= targetEFTP*buildCompletePortion
	return trend, &onTrack
}

// classifyRecoveryTrend prefers the recovery-score average and falls back to
// comparing recent HRV against the older half of the window.
func classifyRecoveryTrend(window []wellness.Record) Trend {
	var scoreSum float64
	var scoreN int
	for _, r := range window {
		if r.RecoveryScore != nil {
			scoreSum += *r.RecoveryScore
			scoreN++
		}
	}
	if scoreN > 0 {
		switch avg := scoreSum / float64(scoreN); {
		case avg >= 65:
			return TrendBuilding
		case avg >= 50:
			return TrendStable
		default:
			return TrendDeclining
		}
	}

	// HRV fallback: recent half vs older half of the window.
	recent, older := splitHRV(window)
	if recent <= 0 || older <= 0 {
		return TrendStable
	}
	deviationPct := (recent - older) / older * 100
	switch {
	case deviationPct >= 3:
		return TrendBuilding
	case deviationPct <= -5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func splitHRV(window []wellness.Record) (recent, older float64) {
	mid := len(window) / 2
	recent = averageHRV(window[:mid])
	older = averageHRV(window[mid:])
	return recent, older
}

func averageHRV(records []wellness.Record) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if r.HRV > 0 {
			sum += r.HRV
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
