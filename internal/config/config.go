// Package config reads server settings from flags and AUCTION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the auction server
type Config struct {
	ListenAddr    string
	LogLevel      string
	TickInterval  time.Duration
	UpcomingEvery int
	BidRateLimit  float64
	BidRateBurst  int
	SeedDemo      bool
}

// Load parses args, then overlays AUCTION_* environment variables, e.g. AUCTION_LISTEN_ADDR
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("auction-server", pflag.ContinueOnError)

	// server
	flags.String("listen-addr", ":8080", "address the HTTP server listens on")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	// status ticks
	flags.Duration("tick-interval", time.Second, "interval between status ticks for live auctions")
	flags.Int("upcoming-every", 30, "upcoming auctions tick once every this many intervals")

	// bid placement
	flags.Float64("bid-rate-limit", 5, "bids per second allowed per actor")
	flags.Int("bid-rate-burst", 10, "bid burst allowed per actor")

	flags.Bool("seed-demo", false, "create demo auctions on startup")

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		ListenAddr:    v.GetString("listen-addr"),
		LogLevel:      v.GetString("log-level"),
		TickInterval:  v.GetDuration("tick-interval"),
		UpcomingEvery: v.GetInt("upcoming-every"),
		BidRateLimit:  v.GetFloat64("bid-rate-limit"),
		BidRateBurst:  v.GetInt("bid-rate-burst"),
		SeedDemo:      v.GetBool("seed-demo"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval %s must be positive", c.TickInterval))
	}
	if c.UpcomingEvery < 1 {
		errs = append(errs, fmt.Errorf("upcoming-every %d must be at least 1", c.UpcomingEvery))
	}
	if c.BidRateLimit <= 0 || c.BidRateBurst < 1 {
		errs = append(errs, fmt.Errorf("bid rate limit %v/s with burst %d is not usable", c.BidRateLimit, c.BidRateBurst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
