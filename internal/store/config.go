package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string   `yaml:"mode"` // DRY_RUN or LIVE
	Symbols     []string `yaml:"symbols"`
	MetricsAddr string   `yaml:"metrics_addr"`
	Exchange    struct {
		BaseURL           string `yaml:"base_url"`
		TeamName          string `yaml:"team_name"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		RequestsPerSecond int    `yaml:"requests_per_second"`
	} `yaml:"exchange"`
	Session struct {
		MaxOrders             int `yaml:"max_orders"`
		DataPollSeconds       int `yaml:"data_poll_seconds"`
		DecisionOffsetSeconds int `yaml:"decision_offset_seconds"`
		FillPollSeconds       int `yaml:"fill_poll_seconds"`
		FillBackoffSeconds    int `yaml:"fill_backoff_seconds"`
		ReconcileEvery        int `yaml:"reconcile_every"`
	} `yaml:"session"`
	Signal struct {
		Threshold       float64 `yaml:"threshold"`
		LookbackSamples int     `yaml:"lookback_samples"`
		MinSamples      int     `yaml:"min_samples"`
		DegradedPolicy  string  `yaml:"degraded_policy"` // SKIP or SHRINK
	} `yaml:"signal"`
	History struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"history"`
	Orders struct {
		BuyDiscount  float64 `yaml:"buy_discount"`
		BuyBudget    float64 `yaml:"buy_budget"`
		SellFraction float64 `yaml:"sell_fraction"`
	} `yaml:"orders"`
	News struct {
		Enabled        bool   `yaml:"enabled"`
		BaseURL        string `yaml:"base_url"`
		MaxArticles    int    `yaml:"max_articles"`
		CacheMinutes   int    `yaml:"cache_minutes"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"news"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if c.Mode == "LIVE" && c.Exchange.BaseURL == "" {
		return errors.New("exchange.base_url is required in LIVE mode")
	}
	if c.Exchange.RequestsPerSecond < 1 {
		return fmt.Errorf("exchange.requests_per_second must be >= 1, got %d", c.Exchange.RequestsPerSecond)
	}
	if c.Session.MaxOrders < 1 {
		return fmt.Errorf("session.max_orders must be >= 1, got %d", c.Session.MaxOrders)
	}
	if c.Signal.Threshold <= 0 {
		return fmt.Errorf("signal.threshold must be > 0, got %.4f", c.Signal.Threshold)
	}
	if c.Signal.LookbackSamples < 1 {
		return fmt.Errorf("signal.lookback_samples must be >= 1, got %d", c.Signal.LookbackSamples)
	}
	if c.Signal.MinSamples < 2 {
		return fmt.Errorf("signal.min_samples must be >= 2, got %d", c.Signal.MinSamples)
	}
	if c.Signal.DegradedPolicy != "SKIP" && c.Signal.DegradedPolicy != "SHRINK" {
		return fmt.Errorf("signal.degraded_policy must be 'SKIP' or 'SHRINK', got '%s'", c.Signal.DegradedPolicy)
	}
	// The full lookback window plus the newest sample must fit in history.
	if c.History.Capacity < c.Signal.LookbackSamples+1 {
		return fmt.Errorf("history.capacity (%d) must cover lookback_samples+1 (%d)",
			c.History.Capacity, c.Signal.LookbackSamples+1)
	}
	if c.Orders.BuyDiscount < 0 || c.Orders.BuyDiscount >= 1 {
		return fmt.Errorf("orders.buy_discount must be in [0,1), got %.4f", c.Orders.BuyDiscount)
	}
	if c.Orders.BuyBudget <= 0 {
		return fmt.Errorf("orders.buy_budget must be > 0, got %.2f", c.Orders.BuyBudget)
	}
	if c.Orders.SellFraction <= 0 || c.Orders.SellFraction > 1 {
		return fmt.Errorf("orders.sell_fraction must be in (0,1], got %.4f", c.Orders.SellFraction)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.Exchange.TimeoutSeconds == 0 {
		c.Exchange.TimeoutSeconds = 10
	}
	if c.Exchange.RequestsPerSecond == 0 {
		// 80% of the venue's stated 50/sec cap.
		c.Exchange.RequestsPerSecond = 40
	}
	if c.Session.MaxOrders == 0 {
		c.Session.MaxOrders = 10
	}
	if c.Session.DataPollSeconds == 0 {
		c.Session.DataPollSeconds = 30
	}
	if c.Session.DecisionOffsetSeconds == 0 {
		c.Session.DecisionOffsetSeconds = 15
	}
	if c.Session.FillPollSeconds == 0 {
		c.Session.FillPollSeconds = 10
	}
	if c.Session.FillBackoffSeconds == 0 {
		c.Session.FillBackoffSeconds = 30
	}
	if c.Session.ReconcileEvery == 0 {
		c.Session.ReconcileEvery = 6
	}
	if c.Signal.Threshold == 0 {
		c.Signal.Threshold = 0.01
	}
	if c.Signal.LookbackSamples == 0 {
		// 5 minutes back at the 30s polling cadence.
		c.Signal.LookbackSamples = 10
	}
	if c.Signal.MinSamples == 0 {
		c.Signal.MinSamples = 2
	}
	if c.Signal.DegradedPolicy == "" {
		c.Signal.DegradedPolicy = "SKIP"
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = 50
	}
	if c.Orders.BuyDiscount == 0 {
		c.Orders.BuyDiscount = 0.05
	}
	if c.Orders.BuyBudget == 0 {
		c.Orders.BuyBudget = 200
	}
	if c.Orders.SellFraction == 0 {
		c.Orders.SellFraction = 0.10
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 15
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 10
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 15
	}
}
