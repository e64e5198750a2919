package selector

// Workout is a catalog entry. Intensity is 1-5, where 1 is full recovery
// and 5 is maximal-effort intervals.
type Workout struct {
	Type        string
	Intensity   int
	Description string
}

// catalog holds the known workout types per sport. The selector and the
// advisor validator both treat this as the closed set of legal outputs.
var catalog = map[string][]Workout{
	"Ride": {
		{Type: "Recovery Spin", Intensity: 1, Description: "Very easy spinning, zone 1 only"},
		{Type: "Endurance", Intensity: 2, Description: "Steady zone 2 aerobic riding"},
		{Type: "Tempo", Intensity: 3, Description: "Sustained zone 3 blocks"},
		{Type: "Sweet Spot", Intensity: 3, Description: "Blocks at 88-94% of FTP"},
		{Type: "Threshold", Intensity: 4, Description: "Intervals at 95-105% of FTP"},
		{Type: "VO2 Max Intervals", Intensity: 5, Description: "Short maximal aerobic intervals"},
	},
	"Run": {
		{Type: "Recovery Run", Intensity: 1, Description: "Short, very easy jog"},
		{Type: "Easy Run", Intensity: 2, Description: "Conversational aerobic run"},
		{Type: "Tempo Run", Intensity: 3, Description: "Comfortably hard sustained effort"},
		{Type: "Threshold Run", Intensity: 4, Description: "Cruise intervals at threshold pace"},
		{Type: "Interval Session", Intensity: 5, Description: "Hard repeats with full recovery"},
	},
}

// Catalog returns the workout entries for a sport, defaulting to cycling
// when the sport is unknown.
func Catalog(sport string) []Workout {
	if workouts, ok := catalog[sport]; ok {
		return workouts
	}
	return catalog["Ride"]
}

// KnownTypes lists the legal workout-type strings for a sport.
func KnownTypes(sport string) []string {
	workouts := Catalog(sport)
	types := make([]string, len(workouts))
	for i, w := range workouts {
		types[i] = w.Type
	}
	return types
}

// IsKnownType reports whether workoutType is a catalog entry for the sport.
func IsKnownType(sport, workoutType string) bool {
	for _, w := range Catalog(sport) {
		if w.Type == workoutType {
			return true
		}
	}
	return false
}

// easiest returns the lowest-intensity entry for a sport.
func easiest(sport string) Workout {
	workouts := Catalog(sport)
	best := workouts[0]
	for _, w := range workouts[1:] {
		if w.Intensity < best.Intensity {
			best = w
		}
	}
	return best
}
