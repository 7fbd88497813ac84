package helpers

import (
	"time"

	"auction-engine/internal/auction"
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Request DTOs
type CreateAuctionRequest struct {
	Title         string           `json:"title" binding:"required"`
	StartTime     time.Time        `json:"start_time" binding:"required"`
	EndTime       time.Time        `json:"end_time" binding:"required"`
	StartingPrice *decimal.Decimal `json:"starting_price" binding:"required"`
}

type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

type MarkSoldRequest struct {
	BuyerID string `json:"buyer_id" binding:"required"`
}

type RegisterBidderRequest struct {
	Name      string `json:"name" binding:"required"`
	Verified  bool   `json:"verified"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

// Response DTOs
type BidResponse struct {
	BidID       string          `json:"bid_id"`
	AuctionID   string          `json:"auction_id"`
	BidderID    string          `json:"bidder_id"`
	Amount      decimal.Decimal `json:"amount"`
	SubmittedAt string          `json:"submitted_at"`
}

type PlaceBidResponse struct {
	Bid            BidResponse     `json:"bid"`
	Leader         BidResponse     `json:"leader"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
}

type AuctionResponse struct {
	AuctionID     string             `json:"auction_id"`
	SellerID      string             `json:"seller_id"`
	Title         string             `json:"title"`
	StartTime     string             `json:"start_time"`
	EndTime       string             `json:"end_time"`
	StartingPrice decimal.Decimal    `json:"starting_price"`
	CurrentPrice  decimal.Decimal    `json:"current_price"`
	TerminalFlag  model.TerminalFlag `json:"terminal_flag"`
	BuyerID       string             `json:"buyer_id,omitempty"`
}

type StatusResponse struct {
	AuctionResponse
	Phase          model.Phase     `json:"phase"`
	TimeRemaining  model.Countdown `json:"time_remaining"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
	LeadingBid     *BidResponse    `json:"leading_bid,omitempty"`
	BidCount       int             `json:"bid_count"`
	AsOf           string          `json:"as_of"`
}

type StandingResponse struct {
	Rank      int         `json:"rank"`
	BidderID  string      `json:"bidder_id"`
	Name      string      `json:"name,omitempty"`
	Verified  bool        `json:"verified"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	BestBid   BidResponse `json:"best_bid"`
}

type RankResponse struct {
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Rank      int    `json:"rank"`
}

// RejectionContext tells the client what would have been accepted
type RejectionContext struct {
	RequiredMinimum *decimal.Decimal `json:"required_minimum,omitempty"`
	CurrentPhase    *model.Phase     `json:"current_phase,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:       bid.BidID,
		AuctionID:   bid.AuctionID,
		BidderID:    bid.BidderID,
		Amount:      bid.Amount,
		SubmittedAt: formatTime(bid.SubmittedAt),
	}
}

func ToBidResponses(bids []model.Bid) []BidResponse {
	return lo.Map(bids, func(bid model.Bid, _ int) BidResponse {
		return ToBidResponse(bid)
	})
}

func ToPlaceBidResponse(result auction.BidResult) PlaceBidResponse {
	return PlaceBidResponse{
		Bid:            ToBidResponse(result.Accepted),
		Leader:         ToBidResponse(result.Leader),
		CurrentPrice:   result.CurrentPrice,
		MinimumNextBid: auction.MinimumNextBid(result.CurrentPrice),
	}
}

func ToAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:     a.AuctionID,
		SellerID:      a.SellerID,
		Title:         a.Title,
		StartTime:     formatTime(a.StartTime),
		EndTime:       formatTime(a.EndTime),
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		TerminalFlag:  a.TerminalFlag,
		BuyerID:       a.BuyerID,
	}
}

func ToAuctionResponses(auctions []model.Auction) []AuctionResponse {
	return lo.Map(auctions, func(a model.Auction, _ int) AuctionResponse {
		return ToAuctionResponse(a)
	})
}

func ToStatusResponse(st bidding.Status) StatusResponse {
	resp := StatusResponse{
		AuctionResponse: ToAuctionResponse(st.Auction),
		Phase:           st.Phase,
		TimeRemaining:   st.TimeRemaining,
		MinimumNextBid:  st.MinimumNextBid,
		BidCount:        st.BidCount,
		AsOf:            formatTime(st.AsOf),
	}
	if st.LeadingBid != nil {
		resp.LeadingBid = lo.ToPtr(ToBidResponse(*st.LeadingBid))
	}
	return resp
}

func ToStatusResponses(statuses []bidding.Status) []StatusResponse {
	return lo.Map(statuses, func(st bidding.Status, _ int) StatusResponse {
		return ToStatusResponse(st)
	})
}

func ToStandingResponses(standings []bidding.RankedBidder) []StandingResponse {
	return lo.Map(standings, func(st bidding.RankedBidder, _ int) StandingResponse {
		return StandingResponse{
			Rank:      st.Rank,
			BidderID:  st.Bidder.BidderID,
			Name:      st.Bidder.Name,
			Verified:  st.Bidder.Verified,
			AvatarURL: st.Bidder.AvatarURL,
			BestBid:   ToBidResponse(st.BestBid),
		}
	})
}
