package ledger

import (
	"fmt"
	"math"

	"golang-synthetic-ledger/internal/refdata"
)

// Routing holds the tuning probabilities that decide which sub-account or
// flag an ordinary posting receives.
type Routing struct {
	// ClaimTypeRate routes a claim payment to its claim-type loss account
	ClaimTypeRate float64 `mapstructure:"claim_type_rate"`
	// ProductAccountRate routes a remaining claim to a product-encoded loss account
	ProductAccountRate float64 `mapstructure:"product_account_rate"`
	// ChannelCommissionRate routes a commission to its channel account
	ChannelCommissionRate float64 `mapstructure:"channel_commission_rate"`
	// ProductCommissionRate routes a remaining commission to a product-encoded account
	ProductCommissionRate float64 `mapstructure:"product_commission_rate"`
	// BackdateRate is the share of operational documents entered after their posting date
	BackdateRate float64 `mapstructure:"backdate_rate"`
	// SuspenseUnclearedRate is the share of suspense receipts left open
	SuspenseUnclearedRate float64 `mapstructure:"suspense_uncleared_rate"`
	// CatActivationRate is the chance a mid-year month carries a catastrophe
	CatActivationRate float64 `mapstructure:"cat_activation_rate"`
	// PriorYearUnfavorableRate is the chance prior-year development strengthens reserves
	PriorYearUnfavorableRate float64 `mapstructure:"prior_year_unfavorable_rate"`
}

// DefaultRouting returns the tuning used for the published fixtures
func DefaultRouting() Routing {
	return Routing{
		ClaimTypeRate:            0.40,
		ProductAccountRate:       0.15,
		ChannelCommissionRate:    0.50,
		ProductCommissionRate:    0.10,
		BackdateRate:             0.02,
		SuspenseUnclearedRate:    0.03,
		CatActivationRate:        0.65,
		PriorYearUnfavorableRate: 0.70,
	}
}

// Validate checks that every rate is a probability
func (r Routing) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"claim_type_rate", r.ClaimTypeRate},
		{"product_account_rate", r.ProductAccountRate},
		{"channel_commission_rate", r.ChannelCommissionRate},
		{"product_commission_rate", r.ProductCommissionRate},
		{"backdate_rate", r.BackdateRate},
		{"suspense_uncleared_rate", r.SuspenseUnclearedRate},
		{"cat_activation_rate", r.CatActivationRate},
		{"prior_year_unfavorable_rate", r.PriorYearUnfavorableRate},
	}
	for _, rate := range rates {
		if math.IsNaN(rate.value) || rate.value < 0 || rate.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", rate.name, rate.value)
		}
	}
	return nil
}

// Config controls posting generation
type Config struct {
	FiscalYear int
	// Scale multiplies every per-month operational volume
	Scale   float64
	Routing Routing
	// OnPeriod is called after each fiscal period with the running line count
	OnPeriod func(period int, lines int)
}

// DefaultConfig returns a full-scale configuration
func DefaultConfig() *Config {
	return &Config{
		FiscalYear: refdata.DefaultYear,
		Scale:      1.0,
		Routing:    DefaultRouting(),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.FiscalYear < 1900 || c.FiscalYear > 9999 {
		return fmt.Errorf("fiscal year %d out of range", c.FiscalYear)
	}
	if c.Scale <= 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("scale must be positive, got %v", c.Scale)
	}
	return c.Routing.Validate()
}

// volumeRange is a per-month document count range at full scale
type volumeRange struct {
	lo, hi int
}

var (
	premiumVolumes = map[string]volumeRange{
		"AUTO": {10000, 11500}, "HOME": {6000, 7000}, "COMML": {5000, 5800}, "WC": {3500, 4100},
	}
	claimVolumes = map[string]volumeRange{
		"AUTO": {3000, 3600}, "HOME": {1800, 2200}, "COMML": {1200, 1500}, "WC": {900, 1100},
	}
	commissionVolumes = map[string]volumeRange{
		"AUTO": {900, 1100}, "HOME": {600, 800}, "COMML": {500, 700}, "WC": {300, 400},
	}
	// premiumBase is the monthly written premium per line
	premiumBase = map[string]float64{
		"AUTO": 12_000_000, "HOME": 7_000_000, "COMML": 9_000_000, "WC": 4_500_000,
	}
	// homeSeasonality scales homeowners volume for the spring and summer storm season
	homeSeasonality = [12]float64{0.9, 0.9, 1.0, 1.1, 1.2, 1.2, 1.2, 1.1, 1.0, 1.0, 0.9, 0.9}

	opexVolume     = volumeRange{400, 500}
	suspenseVolume = volumeRange{2500, 3000}
)

// EstimatedLines approximates the posting lines produced at a scale, for preallocation
func EstimatedLines(scale float64) int {
	return int(1_130_000*scale) + 4_000
}
