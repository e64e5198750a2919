package detectors

import (
	"fmt"

	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

// Retest cadence in days. Threshold numbers drift meaningfully after about
// six weeks of training.
const (
	ftpRetestDueDays     = 42
	ftpRetestOverdueDays = 70
)

// FTPTestInput gates the retest suggestion on freshness and the calendar.
type FTPTestInput struct {
	DaysSinceLastTest int // -1 when never tested
	Metrics           fitness.Metrics
	RecoveryStatus    wellness.RecoveryStatus
	WeeksOut          int
}

// DetectFTPTestDue suggests a threshold retest only when the athlete is
// fresh enough for a representative result: positive TSB, recovery not red,
// and not inside the final taper weeks.
func DetectFTPTestDue(in FTPTestInput) Advisory {
	adv := Advisory{Severity: SeverityNone}

	due := in.DaysSinceLastTest < 0 || in.DaysSinceLastTest >= ftpRetestDueDays
	if !due {
		return adv
	}

	if in.Metrics.TSB <= 0 {
		return adv // too fatigued for a representative test
	}
	if in.RecoveryStatus == wellness.RecoveryRed {
		return adv
	}
	if in.WeeksOut > 0 && in.WeeksOut <= 2 {
		return adv // never burn a match inside the taper
	}

	adv.Detected = true
	adv.Severity = SeverityLow
	if in.DaysSinceLastTest < 0 {
		adv.Reasons = append(adv.Reasons, "no threshold test on record")
	} else {
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%d days since the last threshold test", in.DaysSinceLastTest))
		if in.DaysSinceLastTest >= ftpRetestOverdueDays {
			adv.Severity = SeverityMedium
		}
	}
	adv.Recommendation = "Schedule a 20-minute threshold test in the next few days while form is positive."

	return adv
}
