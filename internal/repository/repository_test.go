package repository

import (
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Helper to create a new Auction
func newAuction(auctionID string, start time.Time, startingPrice int64) model.Auction {
	return model.Auction{
		AuctionID:     auctionID,
		SellerID:      "seller1",
		Title:         fmt.Sprintf("%s title", auctionID),
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		StartingPrice: decimal.NewFromInt(startingPrice),
		CurrentPrice:  decimal.NewFromInt(startingPrice),
		TerminalFlag:  model.TerminalNone,
	}
}

// Helper to create a new Bid
func newBid(bidID, auctionID, bidderID string, amount int64, submittedAt time.Time) model.Bid {
	return model.Bid{
		BidID:       bidID,
		AuctionID:   auctionID,
		BidderID:    bidderID,
		Amount:      decimal.NewFromInt(amount),
		SubmittedAt: submittedAt,
	}
}

func TestMemoryRepo_CreateAuction(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 100)))

	tests := []struct {
		name      string
		auction   model.Auction
		wantError error
	}{
		{name: "new_auction", auction: newAuction("auction2", baseTime, 100)},
		{name: "duplicate_id", auction: newAuction("auction1", baseTime, 100), wantError: biddingerrors.ErrInvalidAuction},
		{name: "empty_id", auction: newAuction("", baseTime, 100), wantError: biddingerrors.ErrInvalidAuction},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := repo.CreateAuction(tc.auction)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)

			stored, err := repo.GetAuction(tc.auction.AuctionID)
			require.NoError(t, err)
			require.Equal(t, tc.auction, stored)
		})
	}
}

func TestMemoryRepo_GetAuction_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryRepo().GetAuction("missing")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
}

func TestMemoryRepo_UpdateAuction(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	auction := newAuction("auction1", baseTime, 100)
	require.NoError(t, repo.CreateAuction(auction))

	auction.CurrentPrice = decimal.NewFromInt(250)
	auction.TerminalFlag = model.TerminalSold
	auction.BuyerID = "user1"
	require.NoError(t, repo.UpdateAuction(auction))

	stored, err := repo.GetAuction("auction1")
	require.NoError(t, err)
	require.Equal(t, auction, stored)

	err = repo.UpdateAuction(newAuction("auctionX", baseTime, 100))
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
}

func TestMemoryRepo_ListAuctions(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	auctions, err := repo.ListAuctions()
	require.NoError(t, err)
	require.Empty(t, auctions)

	require.NoError(t, repo.CreateAuction(newAuction("b", baseTime.Add(time.Hour), 100)))
	require.NoError(t, repo.CreateAuction(newAuction("c", baseTime, 100)))
	require.NoError(t, repo.CreateAuction(newAuction("a", baseTime, 100)))

	auctions, err = repo.ListAuctions()
	require.NoError(t, err)
	ids := make([]string, 0, len(auctions))
	for _, a := range auctions {
		ids = append(ids, a.AuctionID)
	}
	require.Equal(t, []string{"a", "c", "b"}, ids)
}

// Test RecordBid
func TestMemoryRepo_RecordBid(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 50)))

	tests := []struct {
		name      string
		bid       model.Bid
		wantError error
	}{
		{name: "valid_bid", bid: newBid("bid1", "auction1", "user1", 100, baseTime)},
		{name: "auction_not_found", bid: newBid("bid2", "auctionX", "user1", 100, baseTime), wantError: biddingerrors.ErrAuctionNotFound},
		{name: "empty_auctionID", bid: newBid("bid3", "", "user1", 100, baseTime), wantError: biddingerrors.ErrAuctionNotFound},
		{name: "past_timestamp", bid: newBid("bid4", "auction1", "user2", 120, baseTime.Add(-24*time.Hour))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := repo.RecordBid(tc.bid)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)

			bids, err := repo.GetBidsByAuction(tc.bid.AuctionID)
			require.NoError(t, err)
			require.Contains(t, bids, tc.bid)
		})
	}

	// Special case: a bidder bidding twice on the same auction is listed once
	t.Run("bidder_already_bid_on_same_auction", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 50)))
		require.NoError(t, repo.RecordBid(newBid("bid1", "auction1", "user1", 100, baseTime)))
		require.NoError(t, repo.RecordBid(newBid("bid2", "auction1", "user1", 200, baseTime.Add(time.Second))))

		auctions, err := repo.GetAuctionsByBidder("user1")
		require.NoError(t, err)
		require.Len(t, auctions, 1)

		bids, err := repo.GetBidsByAuction("auction1")
		require.NoError(t, err)
		require.Len(t, bids, 2)
		require.Equal(t, "bid1", bids[0].BidID)
		require.Equal(t, "bid2", bids[1].BidID)
	})
}

func TestMemoryRepo_GetBidsByAuction(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 50)))

	_, err := repo.GetBidsByAuction("auction1")
	require.ErrorIs(t, err, biddingerrors.ErrNoBids)

	_, err = repo.GetBidsByAuction("auctionX")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)

	require.NoError(t, repo.RecordBid(newBid("bid1", "auction1", "user1", 100, baseTime)))
	bids, err := repo.GetBidsByAuction("auction1")
	require.NoError(t, err)

	// callers get a copy
	bids[0].BidID = "changed"
	again, err := repo.GetBidsByAuction("auction1")
	require.NoError(t, err)
	require.Equal(t, "bid1", again[0].BidID)
}

func TestMemoryRepo_GetAuctionsByBidder(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 50)))
	require.NoError(t, repo.CreateAuction(newAuction("auction2", baseTime, 50)))
	require.NoError(t, repo.RecordBid(newBid("bid1", "auction1", "user1", 100, baseTime)))
	require.NoError(t, repo.RecordBid(newBid("bid2", "auction2", "user1", 100, baseTime)))

	tests := []struct {
		name      string
		bidderID  string
		wantIDs   []string
		wantError error
	}{
		{name: "bidder_with_bids", bidderID: "user1", wantIDs: []string{"auction1", "auction2"}},
		{name: "bidder_without_bids", bidderID: "user2", wantError: biddingerrors.ErrUserNoBids},
		{name: "empty_bidderID", bidderID: "", wantError: biddingerrors.ErrUserNoBids},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			auctions, err := repo.GetAuctionsByBidder(tc.bidderID)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(auctions))
			for _, a := range auctions {
				ids = append(ids, a.AuctionID)
			}
			require.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestMemoryRepo_Bidders(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()

	_, err := repo.GetBidder("user1")
	require.ErrorIs(t, err, biddingerrors.ErrBidderNotFound)

	require.ErrorIs(t, repo.UpsertBidder(model.Bidder{Name: "nobody"}), biddingerrors.ErrInvalidBidder)

	require.NoError(t, repo.UpsertBidder(model.Bidder{BidderID: "user1", Name: "Ada"}))
	require.NoError(t, repo.UpsertBidder(model.Bidder{BidderID: "user1", Name: "Ada L.", Verified: true}))

	bidder, err := repo.GetBidder("user1")
	require.NoError(t, err)
	require.Equal(t, model.Bidder{BidderID: "user1", Name: "Ada L.", Verified: true}, bidder)
}

// Concurrent writers on one auction must not lose bids
func TestMemoryRepo_ConcurrentRecordBid(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(newAuction("auction1", baseTime, 50)))

	const writers = 100
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.RecordBid(newBid(fmt.Sprintf("bid%d", i), "auction1", fmt.Sprintf("user%d", i%10), int64(100+i), baseTime))
		}()
	}
	wg.Wait()

	bids, err := repo.GetBidsByAuction("auction1")
	require.NoError(t, err)
	require.Len(t, bids, writers)

	auctions, err := repo.GetAuctionsByBidder("user3")
	require.NoError(t, err)
	require.Len(t, auctions, 1)
}
