package auction

import (
	"time"

	model "auction-engine/internal/models"
)

// ResolvePhase derives the phase from the clock and the terminal flag. First match wins:
// sold flag, cancelled flag, before start, inside [start, end), at or after end.
func ResolvePhase(now, startTime, endTime time.Time, flag model.TerminalFlag) model.Phase {
	switch {
	case flag == model.TerminalSold:
		return model.PhaseSold
	case flag == model.TerminalCancelled:
		return model.PhaseEnded
	case now.Before(startTime):
		return model.PhaseUpcoming
	case now.Before(endTime):
		return model.PhaseLive
	default:
		return model.PhaseEnded
	}
}
