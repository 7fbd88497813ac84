// Package ticker pushes periodic auction status snapshots to subscribers.
package ticker

import (
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrHubClosed is returned by Subscribe once Run has stopped
var ErrHubClosed = errors.New("status hub is closed")

// StatusSource evaluates an auction's display state against the server clock
type StatusSource interface {
	GetStatus(auctionID string) (bidding.Status, error)
}

type topic struct {
	subscribers map[<-chan bidding.Status]chan bidding.Status
	ticks       int
	finalSent   bool
}

// Hub fans out status ticks per auction. Live auctions tick on every interval,
// upcoming ones every upcomingEvery intervals, and ended or sold auctions get one final status.
type Hub struct {
	source        StatusSource
	interval      time.Duration
	upcomingEvery int

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewHub creates a Hub that ticks every interval
func NewHub(source StatusSource, interval time.Duration, upcomingEvery int) *Hub {
	if upcomingEvery < 1 {
		upcomingEvery = 1
	}
	return &Hub{
		source:        source,
		interval:      interval,
		upcomingEvery: upcomingEvery,
		topics:        make(map[string]*topic),
	}
}

// Subscribe registers a subscriber for auctionID. The current status is delivered immediately.
func (h *Hub) Subscribe(auctionID string) (<-chan bidding.Status, error) {
	status, err := h.source.GetStatus(auctionID)
	if err != nil {
		return nil, fmt.Errorf("subscribe to auction %s: %w", auctionID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	t, ok := h.topics[auctionID]
	if !ok {
		t = &topic{subscribers: make(map[<-chan bidding.Status]chan bidding.Status)}
		h.topics[auctionID] = t
	}
	ch := make(chan bidding.Status, 1)
	t.subscribers[ch] = ch
	ch <- status

	utils.Debug("status subscriber added", map[string]any{
		"auction_id":  auctionID,
		"subscribers": len(t.subscribers),
	})
	return ch, nil
}

// Unsubscribe removes and closes a subscriber channel. Unknown channels are ignored.
func (h *Hub) Unsubscribe(auctionID string, ch <-chan bidding.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[auctionID]
	if !ok {
		return
	}
	if writeCh, exists := t.subscribers[ch]; exists {
		delete(t.subscribers, ch)
		close(writeCh)
	}
	if len(t.subscribers) == 0 {
		delete(h.topics, auctionID)
	}
}

// Subscribers returns the number of subscribers for auctionID
func (h *Hub) Subscribers(auctionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[auctionID]; ok {
		return len(t.subscribers)
	}
	return 0
}

// Run ticks until ctx is done, then closes every subscriber channel
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.Tick()
		}
	}
}

// Tick runs one broadcast round over every subscribed auction
func (h *Hub) Tick() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.topics))
	for id := range h.topics {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		status, err := h.source.GetStatus(id)
		if err != nil {
			utils.Warn("status tick failed", map[string]any{
				"auction_id": id,
				"error":      err.Error(),
			})
			continue
		}
		h.deliver(id, status)
	}
}

func (h *Hub) deliver(auctionID string, status bidding.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[auctionID]
	if !ok {
		return
	}
	t.ticks++

	switch status.Phase {
	case model.PhaseLive:
		t.finalSent = false
	case model.PhaseUpcoming:
		t.finalSent = false
		if t.ticks%h.upcomingEvery != 0 {
			return
		}
	default:
		if t.finalSent {
			return
		}
		t.finalSent = true
	}

	for _, ch := range t.subscribers {
		select {
		case ch <- status:
		default:
			// subscriber still holds the previous tick
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, t := range h.topics {
		for _, ch := range t.subscribers {
			close(ch)
		}
		delete(h.topics, id)
	}
	h.closed = true
}
