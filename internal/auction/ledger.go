package auction

import (
	"iter"
	"slices"
	"sync"

	model "auction-engine/internal/models"
)

// Ledger is the append-only, arrival-ordered record of accepted bids for one auction.
// It trusts its caller: bids are validated before they reach Append.
type Ledger struct {
	mu     sync.RWMutex
	bids   []model.Bid
	leader int // index into bids, -1 while empty
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{leader: -1}
}

// outranks reports whether a beats b: higher amount first, then earlier submission
func outranks(a, b model.Bid) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c > 0
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}

// Append records bid in arrival order and returns the leading bid afterwards
func (l *Ledger) Append(bid model.Bid) model.Bid {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bids = append(l.bids, bid)
	idx := len(l.bids) - 1
	if l.leader < 0 || outranks(bid, l.bids[l.leader]) {
		l.leader = idx
	}
	return l.bids[l.leader]
}

// LeadingBid returns the current leader, false if no bid was accepted yet
func (l *Ledger) LeadingBid() (model.Bid, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.leader < 0 {
		return model.Bid{}, false
	}
	return l.bids[l.leader], true
}

// Len returns the number of accepted bids
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bids)
}

// History yields the bids accepted so far in arrival order. The sequence is bounded by the
// ledger length when History is called and can be ranged over any number of times.
// Later appends never touch the entries it covers, so iteration holds no lock.
func (l *Ledger) History() iter.Seq[model.Bid] {
	l.mu.RLock()
	view := l.bids[:len(l.bids):len(l.bids)]
	l.mu.RUnlock()

	return func(yield func(model.Bid) bool) {
		for _, bid := range view {
			if !yield(bid) {
				return
			}
		}
	}
}

// Standings ranks bidders by their best bid, amount descending, ties to the earlier bid
func (l *Ledger) Standings() []model.Standing {
	l.mu.RLock()
	best := make(map[string]model.Bid)
	order := make([]string, 0)
	for _, bid := range l.bids {
		current, seen := best[bid.BidderID]
		if !seen {
			order = append(order, bid.BidderID)
		}
		if !seen || outranks(bid, current) {
			best[bid.BidderID] = bid
		}
	}
	l.mu.RUnlock()

	standings := make([]model.Standing, 0, len(order))
	for _, bidderID := range order {
		standings = append(standings, model.Standing{BestBid: best[bidderID]})
	}
	slices.SortStableFunc(standings, func(a, b model.Standing) int {
		switch {
		case outranks(a.BestBid, b.BestBid):
			return -1
		case outranks(b.BestBid, a.BestBid):
			return 1
		default:
			return 0
		}
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// RankOf returns the 1-based rank of bidderID, false if the bidder has no accepted bid
func (l *Ledger) RankOf(bidderID string) (int, bool) {
	for _, standing := range l.Standings() {
		if standing.BestBid.BidderID == bidderID {
			return standing.Rank, true
		}
	}
	return 0, false
}
