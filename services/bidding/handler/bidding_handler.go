//go:generate mockgen -source=bidding_handler.go -destination=mock_handler.go -package=handler

package handler

import (
	"errors"
	"net/http"

	"auction-engine/internal/auction"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	CreateAuction(actor model.ActorContext, in bidding.CreateAuctionInput) (model.Auction, error)
	ListAuctions() ([]bidding.Status, error)
	GetStatus(auctionID string) (bidding.Status, error)
	PlaceBid(auctionID string, amount decimal.Decimal, actor model.ActorContext) (auction.BidResult, error)
	GetBids(auctionID string) ([]model.Bid, error)
	GetLeadingBid(auctionID string) (model.Bid, error)
	GetRank(auctionID, bidderID string) (int, error)
	GetStandings(auctionID string) ([]bidding.RankedBidder, error)
	MarkSold(auctionID, buyerID string, actor model.ActorContext) (model.Auction, error)
	CancelAuction(auctionID string, actor model.ActorContext) (model.Auction, error)
	GetAuctionsByBidder(bidderID string) ([]model.Auction, error)
	RegisterBidder(actor model.ActorContext, bidder model.Bidder) (model.Bidder, error)
}

// StatusStream delivers periodic status snapshots of one auction
type StatusStream interface {
	Subscribe(auctionID string) (<-chan bidding.Status, error)
	Unsubscribe(auctionID string, ch <-chan bidding.Status)
}

type BiddingHandler struct {
	service BiddingServiceInterface
	stream  StatusStream
}

func NewBiddingHandler(service BiddingServiceInterface, stream StatusStream) *BiddingHandler {
	return &BiddingHandler{service: service, stream: stream}
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	actor := helpers.ActorFromContext(c)
	created, err := h.service.CreateAuction(actor, bidding.CreateAuctionInput{
		Title:         req.Title,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartingPrice: *req.StartingPrice,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"actor_id": actor.ActorID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(created), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"seller_id":  created.SellerID,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	statuses, err := h.service.ListAuctions()
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToStatusResponses(statuses), "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{"count": len(statuses)})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	status, err := h.service.GetStatus(auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToStatusResponse(status), "auction retrieved successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	actor := helpers.ActorFromContext(c)
	result, err := h.service.PlaceBid(auctionID, *req.Amount, actor)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  actor.ActorID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToPlaceBidResponse(result), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     result.Accepted.BidID,
		"auction_id": auctionID,
		"bidder_id":  actor.ActorID,
		"amount":     result.Accepted.Amount.String(),
	})
}

// GetBidsHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBids(auctionID)
	if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
		helpers.RespondError(c, "GetBidsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// GetLeadingBidHandler handles GET /auctions/:auction_id/leader
func (h *BiddingHandler) GetLeadingBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetLeadingBid(auctionID)
	if err != nil {
		helpers.RespondError(c, "GetLeadingBidHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "leading bid retrieved successfully")
}

// GetStandingsHandler handles GET /auctions/:auction_id/standings
func (h *BiddingHandler) GetStandingsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	standings, err := h.service.GetStandings(auctionID)
	if err != nil {
		helpers.RespondError(c, "GetStandingsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToStandingResponses(standings), "standings retrieved successfully")
}

// GetRankHandler handles GET /auctions/:auction_id/rank/:bidder_id
func (h *BiddingHandler) GetRankHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bidderID := c.Param("bidder_id")
	rank, err := h.service.GetRank(auctionID, bidderID)
	if err != nil {
		helpers.RespondError(c, "GetRankHandler", err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidderID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.RankResponse{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Rank:      rank,
	}, "rank retrieved successfully")
}

// MarkSoldHandler handles POST /auctions/:auction_id/sold
func (h *BiddingHandler) MarkSoldHandler(c *gin.Context) {
	var req helpers.MarkSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "MarkSoldHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	actor := helpers.ActorFromContext(c)
	sold, err := h.service.MarkSold(auctionID, req.BuyerID, actor)
	if err != nil {
		helpers.RespondError(c, "MarkSoldHandler", err, map[string]any{
			"auction_id": auctionID,
			"buyer_id":   req.BuyerID,
			"actor_id":   actor.ActorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(sold), "auction marked as sold")
	helpers.LogSuccess("MarkSoldHandler", "auction marked as sold", map[string]any{
		"auction_id": auctionID,
		"buyer_id":   sold.BuyerID,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *BiddingHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	actor := helpers.ActorFromContext(c)
	cancelled, err := h.service.CancelAuction(auctionID, actor)
	if err != nil {
		helpers.RespondError(c, "CancelAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"actor_id":   actor.ActorID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(cancelled), "auction cancelled")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled", map[string]any{"auction_id": auctionID})
}

// StreamStatusHandler handles GET /auctions/:auction_id/events as a server-sent event stream
func (h *BiddingHandler) StreamStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	updates, err := h.stream.Subscribe(auctionID)
	if err != nil {
		helpers.RespondError(c, "StreamStatusHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	defer h.stream.Unsubscribe(auctionID, updates)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("status", helpers.ToStatusResponse(status))
			c.Writer.Flush()
			if status.Phase == model.PhaseEnded || status.Phase == model.PhaseSold {
				return
			}
		}
	}
}

// RegisterBidderHandler handles POST /bidders
func (h *BiddingHandler) RegisterBidderHandler(c *gin.Context) {
	var req helpers.RegisterBidderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterBidderHandler", err)
		return
	}

	actor := helpers.ActorFromContext(c)
	stored, err := h.service.RegisterBidder(actor, model.Bidder{
		Name:      req.Name,
		Verified:  req.Verified,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		helpers.RespondError(c, "RegisterBidderHandler", err, map[string]any{"actor_id": actor.ActorID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, stored, "bidder registered successfully")
}

// GetAuctionsByBidderHandler handles GET /users/:user_id/auctions
func (h *BiddingHandler) GetAuctionsByBidderHandler(c *gin.Context) {
	bidderID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByBidder(bidderID)
	if err != nil && !errors.Is(err, biddingerrors.ErrUserNoBids) {
		helpers.RespondError(c, "GetAuctionsByBidderHandler", err, map[string]any{"user_id": bidderID})
		return
	}

	if auctions == nil {
		auctions = []model.Auction{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByBidderHandler", "auctions retrieved successfully", map[string]any{
		"user_id":        bidderID,
		"auctions_count": len(auctions),
	})
}
