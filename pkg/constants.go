package shared

const (
	ProjectID = "rouleur-coach" // Can be overridden by env var in main if needed

	TopicWorkoutDecision = "topic-workout-decision"
	TopicDailyReport     = "topic-daily-report"

	CollectionAthletes  = "athletes"
	CollectionRuns      = "runs"
	CollectionDecisions = "decisions"
)

// ReportObject is the canonical archive path for one day's report, shared
// by the writer in the engine and the readers serving it back.
func ReportObject(athleteID, date string) string {
	return "reports/" + athleteID + "/" + date + ".md"
}
