package intervals

import (
	"sort"
	"strings"
	"time"

	"github.com/rouleur/coach/pkg/domain/activity"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/trajectory"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

// Race event categories on the Intervals.icu calendar.
const (
	CategoryRaceA = "RACE_A"
	CategoryRaceB = "RACE_B"
	CategoryRaceC = "RACE_C"
	CategoryNote  = "NOTE"
)

// ToDomainActivities converts API activities into the engine's neutral
// shape, newest first. The domain components index position 0 as the most
// recent entry, so the API's row order is normalized here regardless of
// how the server sorted it. Rows with unparseable dates are skipped, not
// fatal.
func ToDomainActivities(rows []Activity) []activity.Activity {
	out := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		date, err := parseLocalDate(row.StartDateLocal)
		if err != nil {
			continue
		}
		out = append(out, activity.Activity{
			Date:     date,
			Type:     row.Type,
			TSS:      row.TrainingLoad,
			Duration: time.Duration(row.MovingTime) * time.Second,
			Exertion: row.RPE,
			Feel:     row.Feel,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// ToWellnessRecords converts wellness rows into the newest-first order
// the aggregator and trajectory analyzer index.
func ToWellnessRecords(rows []WellnessRecord) []wellness.Record {
	out := make([]wellness.Record, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.ID)
		if err != nil {
			continue
		}
		out = append(out, wellness.Record{
			Date:          date,
			SleepHours:    row.SleepSecs / 3600,
			SleepQuality:  int(row.SleepQuality),
			RestingHR:     int(row.RestingHR),
			HRV:           row.HRV,
			RecoveryScore: row.Readiness,
			Soreness:      int(row.Soreness),
			Fatigue:       int(row.Fatigue),
			Stress:        int(row.Stress),
			Mood:          int(row.Mood),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// LatestMetrics extracts today's CTL/ATL/ramp from the newest wellness row
// that carries them. Intervals computes these server-side; the engine
// trusts them rather than re-deriving the EMAs.
func LatestMetrics(rows []WellnessRecord) (fitness.Metrics, bool) {
	var best WellnessRecord
	var found bool
	for _, row := range rows {
		if row.CTL <= 0 && row.ATL <= 0 {
			continue
		}
		if !found || row.ID > best.ID {
			best = row
			found = true
		}
	}
	if !found {
		return fitness.Metrics{}, false
	}
	return fitness.New(best.CTL, best.ATL, best.RampRate), true
}

// TrajectoryPoints builds the daily CTL/eFTP series the trajectory
// analyzer samples, newest first. Rows without CTL are skipped.
func TrajectoryPoints(rows []WellnessRecord) []trajectory.Point {
	out := make([]trajectory.Point, 0, len(rows))
	for _, row := range rows {
		if row.CTL <= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", row.ID)
		if err != nil {
			continue
		}
		out = append(out, trajectory.Point{Date: date, CTL: row.CTL, EFTP: row.EFTP})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// RacePriority maps an event category to the A/B/C convention, empty for
// non-race events.
func RacePriority(category string) string {
	switch category {
	case CategoryRaceA:
		return "A"
	case CategoryRaceB:
		return "B"
	case CategoryRaceC:
		return "C"
	}
	return ""
}

// IsRace reports whether the event is a categorized race.
func (e Event) IsRace() bool {
	return strings.HasPrefix(e.Category, "RACE_")
}

func parseLocalDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
