package biddingerrors

import (
	"errors"
	"fmt"

	model "auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidderNotFound  = errors.New("bidder not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrUserNoBids      = errors.New("user has not placed any bids")
	ErrNotSeller       = errors.New("only the seller can change the auction state")
)

// invariant violations, rejected at construction or entry
var (
	ErrInvalidAuction = errors.New("invalid auction")
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidBidder  = errors.New("invalid bidder")
)

// business rule rejections, one per reason code
var (
	ErrUnauthenticated       = errors.New("actor is not authenticated")
	ErrOwnerCannotBid        = errors.New("seller cannot bid on own auction")
	ErrAuctionNotLive        = errors.New("auction is not live")
	ErrBelowMinimumIncrement = errors.New("bid is below the minimum increment")
	ErrAlreadyTerminal       = errors.New("auction is already in a terminal state")
	ErrInvalidTransition     = errors.New("auction cannot make this transition in its current phase")
	ErrNoLeadingBid          = errors.New("auction has no leading bid")
	ErrBuyerNotLeader        = errors.New("buyer is not the leading bidder")
)

// Reason is the wire code of a rejection
type Reason string

const (
	ReasonUnauthenticated       Reason = "UNAUTHENTICATED"
	ReasonOwnerCannotBid        Reason = "OWNER_CANNOT_BID"
	ReasonAuctionNotLive        Reason = "AUCTION_NOT_LIVE"
	ReasonBelowMinimumIncrement Reason = "BELOW_MINIMUM_INCREMENT"
	ReasonAlreadyTerminal       Reason = "ALREADY_TERMINAL"
	ReasonInvalidTransition     Reason = "INVALID_TRANSITION"
	ReasonNoLeadingBid          Reason = "NO_LEADING_BID"
	ReasonBuyerNotLeader        Reason = "BUYER_NOT_LEADER"
)

// Class separates user-correctable input from caller misuse of the auction state
type Class string

const (
	ClassInput Class = "input"
	ClassState Class = "state"
)

var reasonErrors = map[Reason]error{
	ReasonUnauthenticated:       ErrUnauthenticated,
	ReasonOwnerCannotBid:        ErrOwnerCannotBid,
	ReasonAuctionNotLive:        ErrAuctionNotLive,
	ReasonBelowMinimumIncrement: ErrBelowMinimumIncrement,
	ReasonAlreadyTerminal:       ErrAlreadyTerminal,
	ReasonInvalidTransition:     ErrInvalidTransition,
	ReasonNoLeadingBid:          ErrNoLeadingBid,
	ReasonBuyerNotLeader:        ErrBuyerNotLeader,
}

// Rejection is the typed result of a refused bid or transition.
// It carries enough context for a client to render a precise message.
type Rejection struct {
	Reason          Reason
	RequiredMinimum *decimal.Decimal
	CurrentPhase    *model.Phase
}

// Reject builds a rejection without context
func Reject(reason Reason) *Rejection {
	return &Rejection{Reason: reason}
}

func (r *Rejection) Error() string {
	msg := string(r.Reason)
	if sentinel, ok := reasonErrors[r.Reason]; ok {
		msg = sentinel.Error()
	}
	switch {
	case r.RequiredMinimum != nil:
		return fmt.Sprintf("%s: minimum accepted amount is %s", msg, r.RequiredMinimum.String())
	case r.CurrentPhase != nil:
		return fmt.Sprintf("%s: auction is %s", msg, *r.CurrentPhase)
	default:
		return msg
	}
}

// Is matches the sentinel error of the rejection's reason
func (r *Rejection) Is(target error) bool {
	sentinel, ok := reasonErrors[r.Reason]
	return ok && sentinel == target
}

// Class reports whether the rejection is user-correctable or a state-integrity error
func (r *Rejection) Class() Class {
	switch r.Reason {
	case ReasonUnauthenticated, ReasonOwnerCannotBid, ReasonAuctionNotLive, ReasonBelowMinimumIncrement:
		return ClassInput
	default:
		return ClassState
	}
}

// AsRejection unwraps err into a *Rejection if it carries one
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
