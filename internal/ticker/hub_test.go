package ticker

import (
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu     sync.Mutex
	phases map[string]model.Phase
	calls  int
}

func newFakeSource(phases map[string]model.Phase) *fakeSource {
	return &fakeSource{phases: phases}
}

func (f *fakeSource) GetStatus(auctionID string) (bidding.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	phase, ok := f.phases[auctionID]
	if !ok {
		return bidding.Status{}, biddingerrors.ErrAuctionNotFound
	}
	return bidding.Status{Auction: model.Auction{AuctionID: auctionID}, Phase: phase}, nil
}

func (f *fakeSource) set(auctionID string, phase model.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases[auctionID] = phase
}

// drain reads whatever is buffered without blocking
func drain(ch <-chan bidding.Status) []bidding.Status {
	var got []bidding.Status
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, st)
		default:
			return got
		}
	}
}

func TestHub_SubscribeDeliversCurrentStatus(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(map[string]model.Phase{"a1": model.PhaseLive}), time.Second, 5)

	ch, err := hub.Subscribe("a1")
	require.NoError(t, err)
	got := drain(ch)
	require.Len(t, got, 1)
	require.Equal(t, model.PhaseLive, got[0].Phase)
	require.Equal(t, 1, hub.Subscribers("a1"))

	_, err = hub.Subscribe("missing")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
}

func TestHub_Cadence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		phase     model.Phase
		ticks     int
		delivered int
	}{
		{name: "live_every_tick", phase: model.PhaseLive, ticks: 6, delivered: 6},
		{name: "upcoming_every_third_tick", phase: model.PhaseUpcoming, ticks: 6, delivered: 2},
		{name: "ended_once", phase: model.PhaseEnded, ticks: 6, delivered: 1},
		{name: "sold_once", phase: model.PhaseSold, ticks: 6, delivered: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			hub := NewHub(newFakeSource(map[string]model.Phase{"a1": tc.phase}), time.Second, 3)
			ch, err := hub.Subscribe("a1")
			require.NoError(t, err)
			drain(ch)

			delivered := 0
			for range tc.ticks {
				hub.Tick()
				delivered += len(drain(ch))
			}
			require.Equal(t, tc.delivered, delivered)
		})
	}
}

func TestHub_FinalStatusAfterGoingLive(t *testing.T) {
	t.Parallel()

	source := newFakeSource(map[string]model.Phase{"a1": model.PhaseLive})
	hub := NewHub(source, time.Second, 1)
	ch, err := hub.Subscribe("a1")
	require.NoError(t, err)
	drain(ch)

	hub.Tick()
	require.Len(t, drain(ch), 1)

	source.set("a1", model.PhaseEnded)
	hub.Tick()
	got := drain(ch)
	require.Len(t, got, 1)
	require.Equal(t, model.PhaseEnded, got[0].Phase)

	hub.Tick()
	require.Empty(t, drain(ch))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(map[string]model.Phase{"a1": model.PhaseLive}), time.Second, 1)
	slow, err := hub.Subscribe("a1")
	require.NoError(t, err)
	fast, err := hub.Subscribe("a1")
	require.NoError(t, err)
	drain(fast)

	// slow never reads; its buffer already holds the initial status
	for range 10 {
		hub.Tick()
		require.Len(t, drain(fast), 1)
	}
	require.Len(t, drain(slow), 1)
}

func TestHub_Unsubscribe(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(map[string]model.Phase{"a1": model.PhaseLive}), time.Second, 1)
	ch, err := hub.Subscribe("a1")
	require.NoError(t, err)

	hub.Unsubscribe("a1", ch)
	require.Zero(t, hub.Subscribers("a1"))

	drain(ch)
	_, open := <-ch
	require.False(t, open)

	// unknown channels and auctions are ignored
	hub.Unsubscribe("a1", ch)
	hub.Unsubscribe("other", make(chan bidding.Status))
}

func TestHub_RunClosesSubscribersOnShutdown(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(map[string]model.Phase{"a1": model.PhaseLive}), 5*time.Millisecond, 1)
	ch, err := hub.Subscribe("a1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 3 {
		select {
		case _, ok := <-ch:
			require.True(t, ok)
			received++
		case <-timeout:
			t.Fatal("no ticks received")
		}
	}

	cancel()
	<-done

	for range ch {
	}
	_, err = hub.Subscribe("a1")
	require.ErrorIs(t, err, ErrHubClosed)
}
