package main

import (
	"time"

	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// seedDemoAuctions adds one upcoming, one live and one ended auction plus two demo bidders
func seedDemoAuctions(svc *bidding.BiddingService) {
	now := time.Now().UTC()
	seller := model.ActorContext{ActorID: "demo-seller", Authenticated: true}

	demos := []bidding.CreateAuctionInput{
		{Title: "Vintage brass lamp", StartTime: now.Add(-10 * time.Minute), EndTime: now.Add(50 * time.Minute), StartingPrice: decimal.NewFromInt(1000)},
		{Title: "Oak writing desk", StartTime: now.Add(30 * time.Minute), EndTime: now.Add(3 * time.Hour), StartingPrice: decimal.NewFromInt(25000)},
		{Title: "Signed first edition", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), StartingPrice: decimal.NewFromInt(80000)},
	}
	for _, in := range demos {
		if _, err := svc.CreateAuction(seller, in); err != nil {
			utils.Warn("failed to seed demo auction", map[string]any{"title": in.Title, "error": err.Error()})
		}
	}

	for _, b := range []model.Bidder{
		{Name: "Ada", Verified: true},
		{Name: "Grace"},
	} {
		actor := model.ActorContext{ActorID: "demo-" + b.Name, Authenticated: true}
		if _, err := svc.RegisterBidder(actor, b); err != nil {
			utils.Warn("failed to seed demo bidder", map[string]any{"name": b.Name, "error": err.Error()})
		}
	}
}
