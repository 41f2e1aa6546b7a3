package membership

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// CatalogSource defines how tier definitions are loaded.
type CatalogSource interface {
	Load(ctx context.Context) ([]TierDefinition, error)
}

// Catalog is the validated, immutable tier table.
type Catalog struct {
	tiers  map[Tier]TierDefinition
	ranked []Tier
}

// NewCatalog loads and validates tier definitions from src.
func NewCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	if src == nil {
		panic("membership: CatalogSource is required")
	}

	defs, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if err := validateTiers(defs); err != nil {
		return nil, err
	}

	c := &Catalog{tiers: make(map[Tier]TierDefinition, len(defs))}
	for _, d := range defs {
		c.tiers[d.Name] = d.clone()
		c.ranked = append(c.ranked, d.Name)
	}
	slices.SortFunc(c.ranked, func(a, b Tier) int { return c.tiers[a].Rank - c.tiers[b].Rank })

	return c, nil
}

// MustDefaultCatalog returns a catalog built from DefaultTiers.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(context.Background(), NewInMemSource(DefaultTiers()))
	if err != nil {
		panic(err)
	}
	return c
}

// Definition returns a copy of the definition of tier.
func (c *Catalog) Definition(tier Tier) (TierDefinition, error) {
	d, ok := c.tiers[tier]
	if !ok {
		return TierDefinition{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return d.clone(), nil
}

// Has reports whether tier is defined.
func (c *Catalog) Has(tier Tier) bool {
	_, ok := c.tiers[tier]
	return ok
}

// Tiers returns all definitions ordered by ascending rank.
func (c *Catalog) Tiers() []TierDefinition {
	out := make([]TierDefinition, 0, len(c.ranked))
	for _, t := range c.ranked {
		out = append(out, c.tiers[t].clone())
	}
	return out
}

// Price returns the monthly price of tier.
func (c *Catalog) Price(tier Tier) (int64, error) {
	d, ok := c.tiers[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return d.Price, nil
}

// TierForAmount returns the highest paid tier whose price for months is covered by amount.
// It is the degraded path used only when a payment lacks its recorded tier.
func (c *Catalog) TierForAmount(amount int64, months int) (Tier, bool) {
	if months < 1 {
		months = 1
	}
	for i := len(c.ranked) - 1; i >= 0; i-- {
		d := c.tiers[c.ranked[i]]
		if d.Price <= 0 {
			continue
		}
		if amount >= d.Price*int64(months) {
			return d.Name, true
		}
	}
	return "", false
}

// DailyLimit returns the per-day limit of feature for tier. Unknown tiers get the free limits.
func (c *Catalog) DailyLimit(tier Tier, f Feature) int64 {
	return c.def(tier).DailyLimit(f)
}

// MonthlyGrant returns the monthly allowance of a for tier.
func (c *Catalog) MonthlyGrant(tier Tier, a Allowance) int64 {
	return c.def(tier).MonthlyGrant(a)
}

func (c *Catalog) HasCreditPass(tier Tier, kind CreditKind) bool {
	return c.def(tier).HasCreditPass(kind)
}

// IsPaid reports whether tier has a price.
func (c *Catalog) IsPaid(tier Tier) bool {
	d, ok := c.tiers[tier]
	return ok && d.Price > 0
}

// def returns the definition of tier, falling back to free for tiers no longer in the catalog.
func (c *Catalog) def(tier Tier) TierDefinition {
	if d, ok := c.tiers[tier]; ok {
		return d
	}
	return c.tiers[TierFree]
}

func validateTiers(defs []TierDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: no tiers defined", ErrInvalidCatalog)
	}

	seen := make(map[Tier]bool, len(defs))
	ranks := make(map[int]Tier, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("%w: tier name is empty", ErrInvalidCatalog)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate tier %q", ErrInvalidCatalog, d.Name)
		}
		seen[d.Name] = true

		if other, dup := ranks[d.Rank]; dup {
			return fmt.Errorf("%w: tiers %q and %q share rank %d", ErrInvalidCatalog, other, d.Name, d.Rank)
		}
		ranks[d.Rank] = d.Name

		for _, f := range DailyFeatures {
			limit, ok := d.Daily[f]
			if !ok {
				return fmt.Errorf("%w: tier %q has no %s limit", ErrInvalidCatalog, d.Name, f)
			}
			if limit != Unlimited && limit <= 0 {
				return fmt.Errorf("%w: tier %q %s limit must be positive or unlimited", ErrInvalidCatalog, d.Name, f)
			}
		}
		for _, a := range MonthlyAllowances {
			if d.Monthly[a] < 0 {
				return fmt.Errorf("%w: tier %q %s grant must not be negative", ErrInvalidCatalog, d.Name, a)
			}
		}
		for _, k := range d.CreditPass {
			if !k.Valid() {
				return fmt.Errorf("%w: tier %q has unknown credit pass %q", ErrInvalidCatalog, d.Name, k)
			}
		}
		if d.Price < 0 {
			return fmt.Errorf("%w: tier %q price is negative", ErrInvalidCatalog, d.Name)
		}
	}

	if !seen[TierFree] {
		return fmt.Errorf("%w: %q tier is required", ErrInvalidCatalog, TierFree)
	}

	// Prices must rise with rank so amount-based inference is unambiguous.
	sorted := slices.Clone(defs)
	slices.SortFunc(sorted, func(a, b TierDefinition) int { return a.Rank - b.Rank })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Price > 0 && sorted[i].Price <= sorted[i-1].Price {
			return fmt.Errorf("%w: tier %q must cost more than %q", ErrInvalidCatalog, sorted[i].Name, sorted[i-1].Name)
		}
	}

	return nil
}
