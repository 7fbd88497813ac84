package auction

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Session owns one auction's mutable state: current price, terminal flag and ledger.
// Validation and the write that follows it happen under one lock, so at most one bid
// is accepted at a time per auction.
type Session struct {
	mu      sync.Mutex
	auction model.Auction
	ledger  *Ledger
	newID   func() string
}

// SessionOption customises a Session
type SessionOption func(*Session)

// WithIDGenerator overrides how accepted bids get their id
func WithIDGenerator(fn func() string) SessionOption {
	return func(s *Session) {
		s.newID = fn
	}
}

// BidResult describes an accepted bid and the auction state right after it
type BidResult struct {
	Accepted     model.Bid
	Leader       model.Bid
	CurrentPrice decimal.Decimal
}

// NewSession checks the auction's invariants and replays its persisted bid history
func NewSession(a model.Auction, history []model.Bid, opts ...SessionOption) (*Session, error) {
	if a.AuctionID == "" || a.SellerID == "" {
		return nil, fmt.Errorf("%w: missing auction or seller id", biddingerrors.ErrInvalidAuction)
	}
	if !a.StartTime.Before(a.EndTime) {
		return nil, fmt.Errorf("%w: start time %s is not before end time %s",
			biddingerrors.ErrInvalidAuction, a.StartTime.Format(time.RFC3339), a.EndTime.Format(time.RFC3339))
	}
	if !a.StartingPrice.IsPositive() {
		return nil, fmt.Errorf("%w: starting price must be positive", biddingerrors.ErrInvalidAuction)
	}
	if a.CurrentPrice.IsZero() {
		a.CurrentPrice = a.StartingPrice
	}
	if a.CurrentPrice.LessThan(a.StartingPrice) {
		return nil, fmt.Errorf("%w: current price %s below starting price %s",
			biddingerrors.ErrInvalidAuction, a.CurrentPrice, a.StartingPrice)
	}
	switch a.TerminalFlag {
	case "":
		a.TerminalFlag = model.TerminalNone
	case model.TerminalNone, model.TerminalSold, model.TerminalCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown terminal flag %q", biddingerrors.ErrInvalidAuction, a.TerminalFlag)
	}

	s := &Session{
		auction: a,
		ledger:  NewLedger(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	// history must come in arrival order; every accepted bid raised the price, so amounts strictly increase
	for i, bid := range history {
		if bid.AuctionID != a.AuctionID {
			return nil, fmt.Errorf("%w: bid %s belongs to auction %s", biddingerrors.ErrInvalidBid, bid.BidID, bid.AuctionID)
		}
		if !bid.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: bid %s has non-positive amount %s", biddingerrors.ErrInvalidBid, bid.BidID, bid.Amount)
		}
		if i > 0 {
			prev := history[i-1]
			if bid.SubmittedAt.Before(prev.SubmittedAt) {
				return nil, fmt.Errorf("%w: bid %s submitted before its predecessor %s",
					biddingerrors.ErrInvalidBid, bid.BidID, prev.BidID)
			}
			if !bid.Amount.GreaterThan(prev.Amount) {
				return nil, fmt.Errorf("%w: bid %s amount %s does not exceed predecessor %s",
					biddingerrors.ErrInvalidBid, bid.BidID, bid.Amount, prev.Amount)
			}
		}
		s.ledger.Append(bid)
	}
	if leader, ok := s.ledger.LeadingBid(); ok && leader.Amount.GreaterThan(a.CurrentPrice) {
		return nil, fmt.Errorf("%w: leading bid %s exceeds current price %s",
			biddingerrors.ErrInvalidAuction, leader.Amount, a.CurrentPrice)
	}

	return s, nil
}

// snapshot must be called with s.mu held
func (s *Session) snapshot(now time.Time) Snapshot {
	return Snapshot{
		AuctionID:    s.auction.AuctionID,
		SellerID:     s.auction.SellerID,
		StartTime:    s.auction.StartTime,
		EndTime:      s.auction.EndTime,
		CurrentPrice: s.auction.CurrentPrice,
		TerminalFlag: s.auction.TerminalFlag,
		Now:          now,
	}
}

// Snapshot returns a read-only view of the auction at now
func (s *Session) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(now)
}

// Auction returns a copy of the auction record
func (s *Session) Auction() model.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auction
}

// PlaceBid validates amount against the state at now and, if accepted, raises the current
// price to amount and appends the bid. A rejection leaves the session untouched.
func (s *Session) PlaceBid(amount decimal.Decimal, actor model.ActorContext, now time.Time) (BidResult, error) {
	if !amount.IsPositive() {
		return BidResult{}, fmt.Errorf("%w: amount must be positive", biddingerrors.ErrInvalidBid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := Validate(s.snapshot(now), amount, actor); err != nil {
		return BidResult{}, err
	}

	bid := model.Bid{
		BidID:       s.newID(),
		AuctionID:   s.auction.AuctionID,
		BidderID:    actor.ActorID,
		Amount:      amount,
		SubmittedAt: now,
	}
	s.auction.CurrentPrice = amount
	leader := s.ledger.Append(bid)

	return BidResult{
		Accepted:     bid,
		Leader:       leader,
		CurrentPrice: s.auction.CurrentPrice,
	}, nil
}

func (s *Session) phase(now time.Time) model.Phase {
	return ResolvePhase(now, s.auction.StartTime, s.auction.EndTime, s.auction.TerminalFlag)
}

// CurrentPhase resolves the phase at now
func (s *Session) CurrentPhase(now time.Time) model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase(now)
}

// TimeRemaining counts down to the start while upcoming and to the end while live.
// Ended and sold auctions report an elapsed countdown.
func (s *Session) TimeRemaining(now time.Time) model.Countdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining(now)
}

func (s *Session) timeRemaining(now time.Time) model.Countdown {
	switch s.phase(now) {
	case model.PhaseUpcoming:
		return CountdownTo(now, s.auction.StartTime)
	case model.PhaseLive:
		return CountdownTo(now, s.auction.EndTime)
	default:
		return model.Countdown{Elapsed: true}
	}
}

// Status is everything a display needs about one auction, read at a single instant
type Status struct {
	Auction        model.Auction
	Phase          model.Phase
	TimeRemaining  model.Countdown
	MinimumNextBid decimal.Decimal
	LeadingBid     *model.Bid
	BidCount       int
}

// Status reads price, phase, countdown and leader under one lock, so a concurrent bid
// lands either entirely before or entirely after it
func (s *Session) Status(now time.Time) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Auction:        s.auction,
		Phase:          s.phase(now),
		TimeRemaining:  s.timeRemaining(now),
		MinimumNextBid: MinimumNextBid(s.auction.CurrentPrice),
		BidCount:       s.ledger.Len(),
	}
	if leader, ok := s.ledger.LeadingBid(); ok {
		st.LeadingBid = &leader
	}
	return st
}

// MarkSold records a sale to buyerID. The auction must have ended with buyerID leading.
// Repeating the call for the same buyer is a no-op.
func (s *Session) MarkSold(buyerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.auction.TerminalFlag {
	case model.TerminalSold:
		if s.auction.BuyerID == buyerID {
			return nil
		}
		return biddingerrors.Reject(biddingerrors.ReasonAlreadyTerminal)
	case model.TerminalCancelled:
		return biddingerrors.Reject(biddingerrors.ReasonAlreadyTerminal)
	}

	if phase := s.phase(now); phase != model.PhaseEnded {
		return &biddingerrors.Rejection{
			Reason:       biddingerrors.ReasonInvalidTransition,
			CurrentPhase: lo.ToPtr(phase),
		}
	}
	leader, ok := s.ledger.LeadingBid()
	if !ok {
		return biddingerrors.Reject(biddingerrors.ReasonNoLeadingBid)
	}
	if leader.BidderID != buyerID {
		return biddingerrors.Reject(biddingerrors.ReasonBuyerNotLeader)
	}

	s.auction.TerminalFlag = model.TerminalSold
	s.auction.BuyerID = buyerID
	return nil
}

// Cancel aborts an upcoming or live auction. Cancelling twice is a no-op.
func (s *Session) Cancel(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.auction.TerminalFlag {
	case model.TerminalCancelled:
		return nil
	case model.TerminalSold:
		return biddingerrors.Reject(biddingerrors.ReasonAlreadyTerminal)
	}

	if phase := s.phase(now); phase == model.PhaseEnded {
		return &biddingerrors.Rejection{
			Reason:       biddingerrors.ReasonInvalidTransition,
			CurrentPhase: lo.ToPtr(phase),
		}
	}

	s.auction.TerminalFlag = model.TerminalCancelled
	return nil
}

// LeadingBid returns the current leader, false if no bid was accepted yet
func (s *Session) LeadingBid() (model.Bid, bool) {
	return s.ledger.LeadingBid()
}

// RankOf returns the 1-based rank of bidderID in this auction
func (s *Session) RankOf(bidderID string) (int, bool) {
	return s.ledger.RankOf(bidderID)
}

// Standings lists every bidder's best bid with its rank
func (s *Session) Standings() []model.Standing {
	return s.ledger.Standings()
}

// History yields accepted bids in arrival order
func (s *Session) History() iter.Seq[model.Bid] {
	return s.ledger.History()
}

// BidCount returns the number of accepted bids
func (s *Session) BidCount() int {
	return s.ledger.Len()
}
