// Package fitness holds the shared training-load metric types.
package fitness

// Metrics is the standard CTL/ATL/TSB triple plus week-over-week ramp.
// CTL is the long-term load ("fitness"), ATL the short-term load
// ("fatigue"), TSB the balance ("form").
type Metrics struct {
	CTL      float64
	ATL      float64
	TSB      float64
	RampRate float64 // week-over-week CTL delta
}

// New derives TSB from independently supplied CTL and ATL, keeping the
// tsb == ctl - atl invariant by construction.
func New(ctl, atl, rampRate float64) Metrics {
	return Metrics{
		CTL:      ctl,
		ATL:      atl,
		TSB:      ctl - atl,
		RampRate: rampRate,
	}
}
