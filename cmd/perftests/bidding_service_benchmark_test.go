package perftests

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	repository "auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

func init() {
	utils.SetLevel("error")
}

// liveAuction is open for bidding for the whole benchmark run
func liveAuction(auctionID string, startingPrice int64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:     auctionID,
		SellerID:      "bench_seller",
		Title:         "Benchmark auction " + auctionID,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(24 * time.Hour),
		StartingPrice: decimal.NewFromInt(startingPrice),
		CurrentPrice:  decimal.NewFromInt(startingPrice),
		TerminalFlag:  model.TerminalNone,
	}
}

func bidder(userID string) model.ActorContext {
	return model.ActorContext{ActorID: userID, Authenticated: true}
}

// Benchmark 1: PlaceBid - Isolated Auctions (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	for i := range b.N {
		if err := repo.CreateAuction(liveAuction(fmt.Sprintf("auction_%d", i), 1000)); err != nil {
			b.Fatalf("failed to seed auction: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := range b.N {
		userID := fmt.Sprintf("user_%d", i)
		auctionID := fmt.Sprintf("auction_%d", i)
		amount := decimal.NewFromInt(int64(1100 + rand.Intn(100)))
		if _, err := svc.PlaceBid(auctionID, amount, bidder(userID)); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Auction (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedAuction(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	a := liveAuction("shared_auction_1", 1000)
	if err := repo.CreateAuction(a); err != nil {
		b.Fatalf("failed to seed auction: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 1000
	var accepted, rejected int64

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			userID := fmt.Sprintf("user_parallel_%d", rnd.Int())

			// a step above the top increment tier, so ordering alone decides acceptance
			nextBid := atomic.AddInt64(&lastBid, 2500)
			if _, err := svc.PlaceBid(a.AuctionID, decimal.NewFromInt(nextBid), bidder(userID)); err != nil {
				atomic.AddInt64(&rejected, 1)
				continue
			}
			atomic.AddInt64(&accepted, 1)
		}
	})

	b.ReportMetric(float64(accepted), "accepted")
	b.ReportMetric(float64(rejected), "rejected")
}

// Benchmark 3: GetLeadingBid - Single - Threaded (Low Contention)
func Benchmark_GetLeadingBid_SingleThreaded(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	for i := range b.N {
		a := liveAuction(fmt.Sprintf("auction_%d", i), 1000)
		if err := repo.CreateAuction(a); err != nil {
			b.Fatalf("failed to seed auction: %v", err)
		}

		for j := range 10 {
			userID := fmt.Sprintf("user_%d_%d", i, j)
			amount := decimal.NewFromInt(int64(1100 + j*100))
			if _, err := svc.PlaceBid(a.AuctionID, amount, bidder(userID)); err != nil {
				b.Fatalf("failed to seed bid: %v", err)
			}
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := range b.N {
		auctionID := fmt.Sprintf("auction_%d", i)
		if _, err := svc.GetLeadingBid(auctionID); err != nil {
			b.Fatalf("failed to get leading bid: %v", err)
		}
	}
}

// Benchmark 4: GetStatus - Concurrent (High Contention)
func Benchmark_GetStatus_ConcurrentSharedAuction(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	a := liveAuction("shared_auction_1", 1000)
	if err := repo.CreateAuction(a); err != nil {
		b.Fatalf("failed to seed auction: %v", err)
	}

	for j := range 100 {
		userID := fmt.Sprintf("user_%d", j)
		amount := decimal.NewFromInt(int64(1100 + j*100))
		if _, err := svc.PlaceBid(a.AuctionID, amount, bidder(userID)); err != nil {
			b.Fatalf("failed to seed bid: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	var failures int64

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.GetStatus(a.AuctionID); err != nil {
				atomic.AddInt64(&failures, 1)
			}
		}
	})

	if failures > 0 {
		b.Fatalf("status reads failed %d times", failures)
	}
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedAuction(b *testing.B) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	a := liveAuction("shared_auction_1", 1000)
	if err := repo.CreateAuction(a); err != nil {
		b.Fatalf("failed to seed auction: %v", err)
	}

	var lastBid int64 = 1000
	for j := range 50 {
		lastBid += 100
		userID := fmt.Sprintf("user_seed_%d", j)
		if _, err := svc.PlaceBid(a.AuctionID, decimal.NewFromInt(lastBid), bidder(userID)); err != nil {
			b.Fatalf("failed to seed bid: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			switch opType := rnd.Intn(10); {
			case opType < 3:
				userID := fmt.Sprintf("user_writer_%d", rnd.Int())
				nextBid := atomic.AddInt64(&lastBid, 2500)
				_, _ = svc.PlaceBid(a.AuctionID, decimal.NewFromInt(nextBid), bidder(userID))
			case opType < 5:
				_, _ = svc.GetStandings(a.AuctionID)
			default:
				_, _ = svc.GetLeadingBid(a.AuctionID)
			}
		}
	})
}
