package auction

import (
	"time"

	model "auction-engine/internal/models"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// CountdownTo breaks the whole seconds left until boundary into days, hours, minutes and seconds.
// A boundary in the past yields a zero, elapsed countdown. Which boundary to pass is the caller's call.
func CountdownTo(now, boundary time.Time) model.Countdown {
	total := int64(boundary.Sub(now) / time.Second)
	if total < 0 {
		total = 0
	}
	return model.Countdown{
		Days:         total / secondsPerDay,
		Hours:        total % secondsPerDay / secondsPerHour,
		Minutes:      total % secondsPerHour / secondsPerMinute,
		Seconds:      total % secondsPerMinute,
		TotalSeconds: total,
		Elapsed:      total == 0,
	}
}
