//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

package repository

import (
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"fmt"
	"sort"
	"sync"
)

// AuctionDB defines the record storage interface for auctions, bids and bidders
type AuctionDB interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() ([]model.Auction, error)
	UpdateAuction(auction model.Auction) error
	RecordBid(bid model.Bid) error
	// GetBidsByAuction must return bids in the order RecordBid received them
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetAuctionsByBidder(bidderID string) ([]model.Auction, error)
	UpsertBidder(bidder model.Bidder) error
	GetBidder(bidderID string) (model.Bidder, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu            sync.RWMutex
	auctions      map[string]model.Auction // key: auctionID -> value: auction
	bids          map[string][]model.Bid   // key: auctionID -> value: accepted bids in arrival order
	bidders       map[string]model.Bidder  // key: bidderID -> value: bidder
	bidderAuction map[string][]string      // key: bidderID -> value: list of auctionIDs bidder has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:      make(map[string]model.Auction),
		bids:          make(map[string][]model.Bid),
		bidders:       make(map[string]model.Bidder),
		bidderAuction: make(map[string][]string),
	}
}

// CreateAuction stores a new auction record
func (r *MemoryRepo) CreateAuction(auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w - empty auction id", biddingerrors.ErrInvalidAuction)
	}
	if _, exists := r.auctions[auction.AuctionID]; exists {
		return fmt.Errorf("create auction %s: %w - duplicate id", auction.AuctionID, biddingerrors.ErrInvalidAuction)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns one auction record
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns every auction ordered by start time, then id
func (r *MemoryRepo) ListAuctions() ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, a)
	}
	sort.Slice(auctions, func(i, j int) bool {
		if !auctions[i].StartTime.Equal(auctions[j].StartTime) {
			return auctions[i].StartTime.Before(auctions[j].StartTime)
		}
		return auctions[i].AuctionID < auctions[j].AuctionID
	})
	return auctions, nil
}

// UpdateAuction overwrites the mutable fields of an existing auction
func (r *MemoryRepo) UpdateAuction(auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; !ok {
		return fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// RecordBid appends an accepted bid to its auction
func (r *MemoryRepo) RecordBid(bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)

	for _, id := range r.bidderAuction[bid.BidderID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	r.bidderAuction[bid.BidderID] = append(r.bidderAuction[bid.BidderID], bid.AuctionID)

	return nil
}

// GetBidsByAuction returns all accepted bids for an auction in arrival order, ErrNoBids if there are none
func (r *MemoryRepo) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetAuctionsByBidder returns all auctions a bidder has bid on
func (r *MemoryRepo) GetAuctionsByBidder(bidderID string) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctionIDs, ok := r.bidderAuction[bidderID]
	if !ok || len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get auctions for bidder %s: %w", bidderID, biddingerrors.ErrUserNoBids)
	}

	auctions := make([]model.Auction, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		if auction, exists := r.auctions[id]; exists {
			auctions = append(auctions, auction)
		}
	}
	return auctions, nil
}

// UpsertBidder stores or replaces a bidder's display reference
func (r *MemoryRepo) UpsertBidder(bidder model.Bidder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bidder.BidderID == "" {
		return fmt.Errorf("upsert bidder: %w - empty bidder id", biddingerrors.ErrInvalidBidder)
	}
	r.bidders[bidder.BidderID] = bidder
	return nil
}

// GetBidder returns a bidder's display reference
func (r *MemoryRepo) GetBidder(bidderID string) (model.Bidder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bidder, ok := r.bidders[bidderID]
	if !ok {
		return model.Bidder{}, fmt.Errorf("get bidder %s: %w", bidderID, biddingerrors.ErrBidderNotFound)
	}
	return bidder, nil
}
