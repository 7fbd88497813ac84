package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase describes where an auction is in its lifecycle. It is always derived, never stored.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseLive     Phase = "live"
	PhaseEnded    Phase = "ended"
	PhaseSold     Phase = "sold"
)

// TerminalFlag is an explicit override that forces an auction out of its time-derived phase
type TerminalFlag string

const (
	TerminalNone      TerminalFlag = "none"
	TerminalSold      TerminalFlag = "sold"
	TerminalCancelled TerminalFlag = "cancelled"
)

// IsTerminal reports whether the flag is one of the absorbing states.
// The empty value is treated as none.
func (f TerminalFlag) IsTerminal() bool {
	return f == TerminalSold || f == TerminalCancelled
}

// Bidder is the display reference for a participant; identity is owned elsewhere
type Bidder struct {
	BidderID  string `json:"bidder_id"`
	Name      string `json:"name"`
	Verified  bool   `json:"verified"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Auction is the persisted auction record
type Auction struct {
	AuctionID     string          `json:"auction_id"`
	SellerID      string          `json:"seller_id"`
	Title         string          `json:"title"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TerminalFlag  TerminalFlag    `json:"terminal_flag"`
	BuyerID       string          `json:"buyer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Bid represents an accepted bid on an auction. Rejected bids are never stored.
type Bid struct {
	BidID       string          `json:"bid_id"`
	AuctionID   string          `json:"auction_id"`
	BidderID    string          `json:"bidder_id"`
	Amount      decimal.Decimal `json:"amount"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// ActorContext identifies who is acting on an auction
type ActorContext struct {
	ActorID       string
	Authenticated bool
}

// Countdown is the day/hour/minute/second breakdown of the time left until a boundary
type Countdown struct {
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	TotalSeconds int64 `json:"total_seconds"`
	Elapsed      bool  `json:"elapsed"`
}

// Standing is one bidder's best bid and rank in an auction
type Standing struct {
	Rank    int `json:"rank"`
	BestBid Bid `json:"best_bid"`
}
