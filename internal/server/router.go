package server

import (
	"auction-engine/internal/metrics"
	handler "auction-engine/services/bidding/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface, stream handler.StatusStream, limiter *BidRateLimiter, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(ActorMiddleware)         // X-Actor-ID -> ActorContext
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(biddingService, stream)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", biddingHandler.CreateAuctionHandler)
		auctions.GET("", biddingHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", limiter.Middleware, biddingHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsHandler)
		auctions.GET("/:auction_id/leader", biddingHandler.GetLeadingBidHandler)
		auctions.GET("/:auction_id/standings", biddingHandler.GetStandingsHandler)
		auctions.GET("/:auction_id/rank/:bidder_id", biddingHandler.GetRankHandler)
		auctions.POST("/:auction_id/sold", biddingHandler.MarkSoldHandler)
		auctions.POST("/:auction_id/cancel", biddingHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id/events", biddingHandler.StreamStatusHandler)
	}

	bidders := router.Group("/bidders")
	{
		bidders.POST("", biddingHandler.RegisterBidderHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/auctions", biddingHandler.GetAuctionsByBidderHandler)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	return router
}
