package activity

// Heart rate bounds in beats per minute.
const (
	RestingBPM = 60
	MaxBPM     = 120
)

// Zone classifies a heart rate for display next to the overlay.
type Zone string

const (
	ZoneRest    Zone = "Rest"
	ZoneActive  Zone = "Active"
	ZoneIntense Zone = "Intense"
)

// HeartRate converts commits per week into beats per minute.
//
//	0-2 commits  -> 60-70 BPM (resting)
//	3-7 commits  -> 70-90 BPM (active)
//	8+  commits  -> 90-120 BPM (intense), capped
func HeartRate(commits int) int {
	if commits < 0 {
		commits = 0
	}

	var bpm int
	switch {
	case commits <= 2:
		bpm = RestingBPM + commits*5
	case commits <= 7:
		bpm = 70 + (commits-2)*4
	default:
		bpm = min(90+(commits-7)*3, MaxBPM)
	}

	return max(bpm, RestingBPM)
}

// ZoneFor returns the activity zone of bpm.
func ZoneFor(bpm int) Zone {
	switch {
	case bpm < 70:
		return ZoneRest
	case bpm < 90:
		return ZoneActive
	default:
		return ZoneIntense
	}
}

// Color is the indicator color used for the zone.
func (z Zone) Color() string {
	switch z {
	case ZoneRest:
		return "#10b981"
	case ZoneActive:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}
