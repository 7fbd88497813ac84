package integrationtests

import (
	"auction-engine/internal/auction"
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/ticker"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var (
	auctionStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auctionEnd   = auctionStart.Add(time.Hour)
	duringLive   = auctionStart.Add(10 * time.Minute)
)

// testClock is shared by the service under test and the test body
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

// newAuction builds an auction seeded straight into the repository
func newAuction(auctionID, sellerID string, startingPrice int64) model.Auction {
	return model.Auction{
		AuctionID:     auctionID,
		SellerID:      sellerID,
		Title:         auctionID + " title",
		StartTime:     auctionStart,
		EndTime:       auctionEnd,
		StartingPrice: decimal.NewFromInt(startingPrice),
		CurrentPrice:  decimal.NewFromInt(startingPrice),
		TerminalFlag:  model.TerminalNone,
	}
}

// SetupTestRouterWithAuctions initializes the router over an in-memory repository seeded with auctions
func SetupTestRouterWithAuctions(t *testing.T, clock *testClock, auctions ...model.Auction) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, a := range auctions {
		if err := repo.CreateAuction(a); err != nil {
			t.Fatalf("failed to seed auction %s: %v", a.AuctionID, err)
		}
	}

	service := bidding.NewBiddingService(repo, bidding.WithClock(auction.ClockFunc(clock.Now)))
	hub := ticker.NewHub(service, time.Second, 1)
	return server.SetupRouter(service, hub, server.NewBidRateLimiter(1000, 1000), prometheus.NewRegistry())
}

// ExecuteRequestAndParse executes an HTTP request as actorID and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, actorID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set(server.ActorHeader, actorID)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}
