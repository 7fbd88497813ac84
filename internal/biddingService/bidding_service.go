package bidding

import (
	"auction-engine/internal/auction"
	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/metrics"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// sessionEntry pairs an auction session with the lock that serialises its writes,
// so a decision and its write-back reach the store in the same order.
type sessionEntry struct {
	writeMu sync.Mutex
	session *auction.Session
	evicted bool // guarded by writeMu
}

// BiddingService hosts one auction session per auction id and writes accepted changes back to the store
type BiddingService struct {
	repo      repository.AuctionDB
	clock     auction.Clock
	metrics   metrics.MetricsCollector
	newID     func() string
	sanitizer *bluemonday.Policy

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock sets the authoritative clock used for every decision
func WithClock(clock auction.Clock) Option {
	return func(s *BiddingService) {
		s.clock = clock
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *BiddingService) {
		s.metrics = m
	}
}

// WithIDGenerator overrides id generation for auctions and bids
func WithIDGenerator(fn func() string) Option {
	return func(s *BiddingService) {
		s.newID = fn
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:      repo,
		clock:     auction.SystemClock{},
		metrics:   metrics.NopCollector{},
		newID:     utils.GenerateID,
		sanitizer: bluemonday.StrictPolicy(),
		sessions:  make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAuctionInput is what a seller provides to open an auction
type CreateAuctionInput struct {
	Title         string
	StartTime     time.Time
	EndTime       time.Time
	StartingPrice decimal.Decimal
}

// Status is the display view of one auction at a given instant
type Status struct {
	Auction        model.Auction   `json:"auction"`
	Phase          model.Phase     `json:"phase"`
	TimeRemaining  model.Countdown `json:"time_remaining"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
	LeadingBid     *model.Bid      `json:"leading_bid,omitempty"`
	BidCount       int             `json:"bid_count"`
	AsOf           time.Time       `json:"as_of"`
}

// RankedBidder is a standing enriched with the bidder's display reference
type RankedBidder struct {
	Rank    int          `json:"rank"`
	Bidder  model.Bidder `json:"bidder"`
	BestBid model.Bid    `json:"best_bid"`
}

// CreateAuction opens a new auction owned by the acting seller
func (s *BiddingService) CreateAuction(actor model.ActorContext, in CreateAuctionInput) (model.Auction, error) {
	if !actor.Authenticated || actor.ActorID == "" {
		return model.Auction{}, fmt.Errorf("service: %w", biddingerrors.Reject(biddingerrors.ReasonUnauthenticated))
	}
	title := strings.TrimSpace(s.sanitizer.Sanitize(in.Title))
	if title == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty title", biddingerrors.ErrInvalidAuction)
	}

	record := model.Auction{
		AuctionID:     s.newID(),
		SellerID:      actor.ActorID,
		Title:         title,
		StartTime:     in.StartTime.UTC(),
		EndTime:       in.EndTime.UTC(),
		StartingPrice: in.StartingPrice,
		CurrentPrice:  in.StartingPrice,
		TerminalFlag:  model.TerminalNone,
		CreatedAt:     s.clock.Now(),
	}

	session, err := auction.NewSession(record, nil, auction.WithIDGenerator(s.newID))
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: %w", err)
	}
	if err := s.repo.CreateAuction(record); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to store auction: %w", err)
	}

	s.mu.Lock()
	s.sessions[record.AuctionID] = &sessionEntry{session: session}
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)

	utils.Info("auction created", map[string]any{
		"auction_id": record.AuctionID,
		"seller_id":  record.SellerID,
		"start_time": record.StartTime,
		"end_time":   record.EndTime,
	})
	return session.Auction(), nil
}

// entry returns the session for auctionID, loading it from the store on first use
func (s *BiddingService) entry(auctionID string) (*sessionEntry, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	s.mu.RLock()
	e, ok := s.sessions[auctionID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	record, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	history, err := s.repo.GetBidsByAuction(auctionID)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		return nil, fmt.Errorf("service: failed to load bids for auction %s: %w", auctionID, err)
	}
	session, err := auction.NewSession(record, history, auction.WithIDGenerator(s.newID))
	if err != nil {
		return nil, fmt.Errorf("service: stored auction %s is invalid: %w", auctionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[auctionID]; ok {
		return existing, nil
	}
	e = &sessionEntry{session: session}
	s.sessions[auctionID] = e
	s.metrics.SetActiveSessions(len(s.sessions))
	return e, nil
}

// lockEntry returns the live session entry for auctionID with its write lock held.
// An entry evicted while we waited for the lock is skipped in favour of a fresh load.
func (s *BiddingService) lockEntry(auctionID string) (*sessionEntry, error) {
	for {
		e, err := s.entry(auctionID)
		if err != nil {
			return nil, err
		}
		e.writeMu.Lock()
		if !e.evicted {
			return e, nil
		}
		e.writeMu.Unlock()
	}
}

// evict drops a session whose write-back failed, so the next access reloads what the store holds.
// Must be called with e.writeMu held.
func (s *BiddingService) evict(auctionID string, e *sessionEntry) {
	e.evicted = true

	s.mu.Lock()
	if s.sessions[auctionID] == e {
		delete(s.sessions, auctionID)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	utils.Warn("auction session evicted after failed write-back", map[string]any{"auction_id": auctionID})
}

// GetAuction returns the current auction record
func (s *BiddingService) GetAuction(auctionID string) (model.Auction, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	return e.session.Auction(), nil
}

// GetStatus evaluates phase, countdown and price of an auction against the server clock
func (s *BiddingService) GetStatus(auctionID string) (Status, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return Status{}, err
	}
	return statusOf(e.session, s.clock.Now()), nil
}

func statusOf(session *auction.Session, now time.Time) Status {
	st := session.Status(now)
	return Status{
		Auction:        st.Auction,
		Phase:          st.Phase,
		TimeRemaining:  st.TimeRemaining,
		MinimumNextBid: st.MinimumNextBid,
		LeadingBid:     st.LeadingBid,
		BidCount:       st.BidCount,
		AsOf:           now,
	}
}

// ListAuctions returns the status of every stored auction
func (s *BiddingService) ListAuctions() ([]Status, error) {
	records, err := s.repo.ListAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}

	now := s.clock.Now()
	statuses := make([]Status, 0, len(records))
	for _, record := range records {
		e, err := s.entry(record.AuctionID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, statusOf(e.session, now))
	}
	return statuses, nil
}

// PlaceBid decides a bid against the server clock and, once accepted, writes it back to the store
func (s *BiddingService) PlaceBid(auctionID string, amount decimal.Decimal, actor model.ActorContext) (auction.BidResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordPlaceBidLatency(time.Since(start)) }()

	e, err := s.lockEntry(auctionID)
	if err != nil {
		return auction.BidResult{}, err
	}
	defer e.writeMu.Unlock()

	before := e.session.Auction()
	result, err := e.session.PlaceBid(amount, actor, s.clock.Now())
	if err != nil {
		if rej, ok := biddingerrors.AsRejection(err); ok {
			s.metrics.RecordBidRejected(string(rej.Reason))
		} else {
			s.metrics.RecordBidRejected("INVALID_BID")
		}
		return auction.BidResult{}, fmt.Errorf("service: bid on auction %s by %s: %w", auctionID, actor.ActorID, err)
	}

	// the stored price must never trail a stored bid
	if err := s.repo.UpdateAuction(e.session.Auction()); err != nil {
		s.evict(auctionID, e)
		return auction.BidResult{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}
	if err := s.repo.RecordBid(result.Accepted); err != nil {
		if restoreErr := s.repo.UpdateAuction(before); restoreErr != nil {
			utils.Error("failed to restore auction after bid write-back failure", map[string]any{
				"auction_id": auctionID,
				"error":      restoreErr.Error(),
			})
		}
		s.evict(auctionID, e)
		return auction.BidResult{}, fmt.Errorf("service: failed to record bid %s for auction %s: %w", result.Accepted.BidID, auctionID, err)
	}
	s.metrics.RecordBidAccepted(auctionID)

	return result, nil
}

// GetBids returns all accepted bids for an auction in arrival order
func (s *BiddingService) GetBids(auctionID string) ([]model.Bid, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return nil, err
	}

	bids := slices.Collect(e.session.History())
	if len(bids) == 0 {
		return nil, fmt.Errorf("service: auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return bids, nil
}

// GetLeadingBid returns the leading bid of an auction
func (s *BiddingService) GetLeadingBid(auctionID string) (model.Bid, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return model.Bid{}, err
	}

	leader, ok := e.session.LeadingBid()
	if !ok {
		return model.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, biddingerrors.ErrNoBids)
	}
	return leader, nil
}

// GetRank returns the bidder's 1-based rank in an auction
func (s *BiddingService) GetRank(auctionID, bidderID string) (int, error) {
	if bidderID == "" {
		return 0, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidBid)
	}
	e, err := s.entry(auctionID)
	if err != nil {
		return 0, err
	}

	rank, ok := e.session.RankOf(bidderID)
	if !ok {
		return 0, fmt.Errorf("service: bidder %s on auction %s: %w", bidderID, auctionID, biddingerrors.ErrUserNoBids)
	}
	return rank, nil
}

// GetStandings returns every bidder's best bid and rank, with display details where known
func (s *BiddingService) GetStandings(auctionID string) ([]RankedBidder, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return nil, err
	}

	standings := e.session.Standings()
	ranked := make([]RankedBidder, 0, len(standings))
	for _, st := range standings {
		bidder, err := s.repo.GetBidder(st.BestBid.BidderID)
		if err != nil {
			if !errors.Is(err, biddingerrors.ErrBidderNotFound) {
				return nil, fmt.Errorf("service: failed to load bidder %s: %w", st.BestBid.BidderID, err)
			}
			bidder = model.Bidder{BidderID: st.BestBid.BidderID}
		}
		ranked = append(ranked, RankedBidder{Rank: st.Rank, Bidder: bidder, BestBid: st.BestBid})
	}
	return ranked, nil
}

// MarkSold records the sale of an ended auction to its leading bidder; only the seller may do this
func (s *BiddingService) MarkSold(auctionID, buyerID string, actor model.ActorContext) (model.Auction, error) {
	return s.transition(auctionID, actor, string(model.TerminalSold), func(session *auction.Session, now time.Time) error {
		return session.MarkSold(buyerID, now)
	})
}

// CancelAuction aborts an upcoming or live auction; only the seller may do this
func (s *BiddingService) CancelAuction(auctionID string, actor model.ActorContext) (model.Auction, error) {
	return s.transition(auctionID, actor, string(model.TerminalCancelled), func(session *auction.Session, now time.Time) error {
		return session.Cancel(now)
	})
}

func (s *BiddingService) transition(auctionID string, actor model.ActorContext, state string, apply func(*auction.Session, time.Time) error) (model.Auction, error) {
	if !actor.Authenticated {
		return model.Auction{}, fmt.Errorf("service: %w", biddingerrors.Reject(biddingerrors.ReasonUnauthenticated))
	}
	e, err := s.lockEntry(auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	defer e.writeMu.Unlock()

	before := e.session.Auction()
	if before.SellerID != actor.ActorID {
		return model.Auction{}, fmt.Errorf("service: auction %s: %w", auctionID, biddingerrors.ErrNotSeller)
	}
	if err := apply(e.session, s.clock.Now()); err != nil {
		return model.Auction{}, fmt.Errorf("service: %s auction %s: %w", state, auctionID, err)
	}

	after := e.session.Auction()
	if after.TerminalFlag == before.TerminalFlag {
		return after, nil
	}
	if err := s.repo.UpdateAuction(after); err != nil {
		s.evict(auctionID, e)
		return model.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}
	s.metrics.RecordAuctionTransition(state)
	utils.Info("auction reached terminal state", map[string]any{
		"auction_id": auctionID,
		"state":      state,
		"buyer_id":   after.BuyerID,
	})
	return after, nil
}

// GetAuctionsByBidder returns all auctions a bidder has bid on
func (s *BiddingService) GetAuctionsByBidder(bidderID string) ([]model.Auction, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidBid)
	}

	auctions, err := s.repo.GetAuctionsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for bidder %s: %w", bidderID, err)
	}
	return auctions, nil
}

// RegisterBidder stores the display reference of the acting bidder
func (s *BiddingService) RegisterBidder(actor model.ActorContext, bidder model.Bidder) (model.Bidder, error) {
	if !actor.Authenticated {
		return model.Bidder{}, fmt.Errorf("service: %w", biddingerrors.Reject(biddingerrors.ReasonUnauthenticated))
	}
	bidder.BidderID = actor.ActorID
	bidder.Name = strings.TrimSpace(s.sanitizer.Sanitize(bidder.Name))
	if bidder.Name == "" {
		return model.Bidder{}, fmt.Errorf("service: %w - empty name", biddingerrors.ErrInvalidBidder)
	}

	if err := s.repo.UpsertBidder(bidder); err != nil {
		return model.Bidder{}, fmt.Errorf("service: failed to store bidder %s: %w", bidder.BidderID, err)
	}
	return bidder, nil
}
