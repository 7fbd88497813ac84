package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-engine/internal/auction"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/metrics"
	"auction-engine/internal/repository"
	"auction-engine/internal/ticker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type mutableClock struct{ now time.Time }

func (c *mutableClock) Now() time.Time { return c.now }

func send(t *testing.T, router *gin.Engine, method, path, actorID, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set(ActorHeader, actorID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	resp["code"] = w.Code
	return resp
}

func TestSetupRouter_AuctionLifecycle(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &mutableClock{now: start.Add(-time.Hour)}

	reg := prometheus.NewRegistry()
	service := bidding.NewBiddingService(repository.NewMemoryRepo(),
		bidding.WithClock(auction.ClockFunc(clock.Now)),
		bidding.WithMetrics(metrics.NewCollector(reg)),
	)
	hub := ticker.NewHub(service, time.Second, 1)
	router := SetupRouter(service, hub, NewBidRateLimiter(100, 100), reg)

	created := send(t, router, http.MethodPost, "/auctions", "seller1",
		`{"title":"Brass lamp","start_time":"2026-03-01T12:00:00Z","end_time":"2026-03-01T13:00:00Z","starting_price":"1000"}`)
	require.Equal(t, http.StatusCreated, created["code"])
	auctionID := created["data"].(map[string]any)["auction_id"].(string)
	base := "/auctions/" + auctionID

	early := send(t, router, http.MethodPost, base+"/bids", "user1", `{"amount":1100}`)
	require.Equal(t, http.StatusUnprocessableEntity, early["code"])
	require.Equal(t, "AUCTION_NOT_LIVE", early["reason"])

	clock.now = start.Add(5 * time.Minute)

	first := send(t, router, http.MethodPost, base+"/bids", "user1", `{"amount":1100}`)
	require.Equal(t, http.StatusCreated, first["code"])

	low := send(t, router, http.MethodPost, base+"/bids", "user2", `{"amount":1150}`)
	require.Equal(t, http.StatusUnprocessableEntity, low["code"])
	require.Equal(t, map[string]any{"required_minimum": "1200"}, low["context"])

	second := send(t, router, http.MethodPost, base+"/bids", "user2", `{"amount":1200}`)
	require.Equal(t, http.StatusCreated, second["code"])

	own := send(t, router, http.MethodPost, base+"/bids", "seller1", `{"amount":1500}`)
	require.Equal(t, "OWNER_CANNOT_BID", own["reason"])

	anon := send(t, router, http.MethodPost, base+"/bids", "", `{"amount":1500}`)
	require.Equal(t, http.StatusUnauthorized, anon["code"])

	leader := send(t, router, http.MethodGet, base+"/leader", "", "")
	require.Equal(t, "user2", leader["data"].(map[string]any)["bidder_id"])

	rank := send(t, router, http.MethodGet, base+"/rank/user1", "", "")
	require.EqualValues(t, 2, rank["data"].(map[string]any)["rank"])

	early = send(t, router, http.MethodPost, base+"/sold", "seller1", `{"buyer_id":"user2"}`)
	require.Equal(t, http.StatusConflict, early["code"])
	require.Equal(t, "INVALID_TRANSITION", early["reason"])

	clock.now = start.Add(2 * time.Hour)

	sold := send(t, router, http.MethodPost, base+"/sold", "seller1", `{"buyer_id":"user2"}`)
	require.Equal(t, http.StatusOK, sold["code"])

	status := send(t, router, http.MethodGet, base, "", "")
	require.Equal(t, "sold", status["data"].(map[string]any)["phase"])

	mine := send(t, router, http.MethodGet, "/users/user1/auctions", "", "")
	require.Len(t, mine["data"].([]any), 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "auction_bids_accepted_total 2")
	require.Contains(t, body, `auction_bids_rejected_total{reason="BELOW_MINIMUM_INCREMENT"} 1`)
	require.Contains(t, body, `auction_terminal_transitions_total{state="sold"} 1`)
	require.True(t, strings.Contains(body, "auction_active_sessions 1"))
}
