// Package fitfile renders a WorkoutDecision into a structured FIT workout
// file that training platforms can execute on a head unit.
package fitfile

import (
	"bytes"
	"fmt"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/rouleur/coach/pkg/domain/selector"
)

// step is one workout step with a duration and a %FTP power band.
type step struct {
	name       string
	minutes    uint32
	ftpLowPct  uint32
	ftpHighPct uint32
	intensity  typedef.Intensity
}

// mainBlock maps the day's intensity ceiling (1-5) to the work portion of
// the session. Warmup and cooldown are fixed.
func mainBlock(maxIntensity int, minutes uint32) []step {
	switch {
	case maxIntensity <= 1:
		return []step{{"Recovery", minutes, 40, 55, typedef.IntensityActive}}
	case maxIntensity == 2:
		return []step{{"Endurance", minutes, 56, 75, typedef.IntensityActive}}
	case maxIntensity == 3:
		return []step{{"Tempo", minutes, 76, 94, typedef.IntensityActive}}
	case maxIntensity == 4:
		return []step{
			{"Threshold 1", minutes / 2, 95, 105, typedef.IntensityActive},
			{"Recovery", 5, 40, 55, typedef.IntensityRest},
			{"Threshold 2", minutes / 2, 95, 105, typedef.IntensityActive},
		}
	default:
		return []step{
			{"VO2 1", minutes / 3, 106, 120, typedef.IntensityActive},
			{"Recovery", 4, 40, 55, typedef.IntensityRest},
			{"VO2 2", minutes / 3, 106, 120, typedef.IntensityActive},
			{"Recovery", 4, 40, 55, typedef.IntensityRest},
			{"VO2 3", minutes / 3, 106, 120, typedef.IntensityActive},
		}
	}
}

func sportFor(sport string) typedef.Sport {
	if sport == "Run" {
		return typedef.SportRunning
	}
	return typedef.SportCycling
}

// Generate encodes the decision as a FIT workout file. Rest days have no
// file to generate and return an error the caller treats as "skip upload".
func Generate(decision selector.WorkoutDecision, sport string, mainMinutes uint32, day time.Time) ([]byte, error) {
	if decision.IsRestDay {
		return nil, fmt.Errorf("no workout file for a rest day")
	}
	if mainMinutes == 0 {
		mainMinutes = 45
	}

	steps := []step{{"Warmup", 10, 45, 65, typedef.IntensityWarmup}}
	steps = append(steps, mainBlock(decision.MaxIntensity, mainMinutes)...)
	steps = append(steps, step{"Cooldown", 10, 40, 55, typedef.IntensityCooldown})

	fit := &proto.FIT{
		Messages: []proto.Message{},
	}

	fileId := mesgdef.NewFileId(nil).
		SetType(typedef.FileWorkout).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(day)
	fit.Messages = append(fit.Messages, fileId.ToMesg(nil))

	workoutMsg := mesgdef.NewWorkout(nil).
		SetSport(sportFor(sport)).
		SetWktName(decision.WorkoutType).
		SetNumValidSteps(uint16(len(steps)))
	fit.Messages = append(fit.Messages, workoutMsg.ToMesg(nil))

	for i, s := range steps {
		// Custom power targets above 1000 encode percent of FTP.
		stepMsg := mesgdef.NewWorkoutStep(nil).
			SetMessageIndex(typedef.MessageIndex(i)).
			SetWktStepName(s.name).
			SetIntensity(s.intensity).
			SetDurationType(typedef.WktStepDurationTime).
			SetDurationValue(s.minutes * 60 * 1000).
			SetTargetType(typedef.WktStepTargetPower).
			SetCustomTargetValueLow(1000 + s.ftpLowPct).
			SetCustomTargetValueHigh(1000 + s.ftpHighPct)
		fit.Messages = append(fit.Messages, stepMsg.ToMesg(nil))
	}

	var buf bytes.Buffer
	enc := encoder.New(&buf)
	if err := enc.Encode(fit); err != nil {
		return nil, fmt.Errorf("failed to encode workout file: %w", err)
	}

	return buf.Bytes(), nil
}
