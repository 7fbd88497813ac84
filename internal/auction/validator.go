package auction

import (
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Snapshot is a read-only view of one auction at a given instant, used as validation input
type Snapshot struct {
	AuctionID    string
	SellerID     string
	StartTime    time.Time
	EndTime      time.Time
	CurrentPrice decimal.Decimal
	TerminalFlag model.TerminalFlag
	Now          time.Time
}

// Phase resolves the snapshot's phase at its own instant
func (s Snapshot) Phase() model.Phase {
	return ResolvePhase(s.Now, s.StartTime, s.EndTime, s.TerminalFlag)
}

// Validate decides whether amount may be accepted as the next bid. It returns nil on acceptance
// and a *biddingerrors.Rejection otherwise. Checks run in order and stop at the first failure:
// authentication, seller self-bidding, live phase, minimum increment.
func Validate(snap Snapshot, amount decimal.Decimal, actor model.ActorContext) error {
	if !actor.Authenticated {
		return biddingerrors.Reject(biddingerrors.ReasonUnauthenticated)
	}
	if actor.ActorID == snap.SellerID {
		return biddingerrors.Reject(biddingerrors.ReasonOwnerCannotBid)
	}
	if phase := snap.Phase(); phase != model.PhaseLive {
		return &biddingerrors.Rejection{
			Reason:       biddingerrors.ReasonAuctionNotLive,
			CurrentPhase: lo.ToPtr(phase),
		}
	}
	if required := MinimumNextBid(snap.CurrentPrice); amount.LessThan(required) {
		return &biddingerrors.Rejection{
			Reason:          biddingerrors.ReasonBelowMinimumIncrement,
			RequiredMinimum: lo.ToPtr(required),
		}
	}
	return nil
}
