package membership

import (
	"fmt"
	"time"
)

// Config holds the entitlement engine settings loaded from the environment.
type Config struct {
	// Timezone names the location whose calendar drives daily and monthly rollovers.
	Timezone       string        `env:"MEMBERSHIP_TIMEZONE" envDefault:"Africa/Addis_Ababa"`
	WriteTimeout   time.Duration `env:"MEMBERSHIP_WRITE_TIMEOUT" envDefault:"3s"`
	CatalogFile    string        `env:"TIER_CATALOG_FILE"`
	SweepBatchSize int           `env:"MEMBERSHIP_SWEEP_BATCH_SIZE" envDefault:"500"`
}

func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("MEMBERSHIP_TIMEZONE: %w", err)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("MEMBERSHIP_WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("MEMBERSHIP_SWEEP_BATCH_SIZE must be positive, got %d", c.SweepBatchSize)
	}
	return nil
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CatalogSource returns the YAML file source when CatalogFile is set and the built-in tiers otherwise.
func (c Config) CatalogSource() CatalogSource {
	if c.CatalogFile != "" {
		return NewYAMLFileSource(c.CatalogFile)
	}
	return NewInMemSource(DefaultTiers())
}
