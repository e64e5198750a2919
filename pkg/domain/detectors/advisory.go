// Package detectors holds the independent threshold detectors. Each is a
// pure function of its own trailing data window; none reads another's
// output, and partial or missing weeks are treated as zero activity rather
// than errors.
package detectors

// Severity levels an advisory. Ordering matters: consumers compare against
// the scale when deciding how loudly to surface a warning.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Advisory is the common result shape for every detector.
type Advisory struct {
	Detected       bool
	Severity       Severity
	Reasons        []string
	Recommendation string
}
