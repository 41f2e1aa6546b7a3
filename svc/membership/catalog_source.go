package membership

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type inMemSource struct {
	defs []TierDefinition
}

// NewInMemSource returns a CatalogSource holding a deep copy of defs.
func NewInMemSource(defs []TierDefinition) CatalogSource {
	cp := make([]TierDefinition, 0, len(defs))
	for _, d := range defs {
		cp = append(cp, d.clone())
	}
	return &inMemSource{defs: cp}
}

func (s *inMemSource) Load(context.Context) ([]TierDefinition, error) {
	out := make([]TierDefinition, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d.clone())
	}
	return out, nil
}

// limit accepts an integer or the word "unlimited".
type limit int64

func (l *limit) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if strings.EqualFold(raw, "unlimited") {
		*l = limit(Unlimited)
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: limit must be an integer or \"unlimited\": %w", value.Line, err)
	}
	*l = limit(n)
	return nil
}

type yamlTier struct {
	Name       Tier                `yaml:"name"`
	Rank       int                 `yaml:"rank"`
	Price      int64               `yaml:"price"`
	Daily      map[Feature]limit   `yaml:"daily"`
	Monthly    map[Allowance]limit `yaml:"monthly"`
	CreditPass []CreditKind        `yaml:"credit_pass"`
	PriceRef   string              `yaml:"price_ref"`
}

type yamlCatalog struct {
	Tiers []yamlTier `yaml:"tiers"`
}

type yamlSource struct {
	open func() (io.ReadCloser, error)
}

// NewYAMLSource reads the catalog from r on every Load.
//
//	tiers:
//	  - name: gold
//	    rank: 2
//	    price: 1500
//	    daily: {messages: 100, views: unlimited, right_swipes: unlimited, compliments: 10}
//	    monthly: {boosts: 2, super_likes: 10}
func NewYAMLSource(data []byte) CatalogSource {
	return &yamlSource{open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

// NewYAMLFileSource reads the catalog from path on every Load.
func NewYAMLFileSource(path string) CatalogSource {
	return &yamlSource{open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

func (s *yamlSource) Load(context.Context) ([]TierDefinition, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var doc yamlCatalog
	dec := yaml.NewDecoder(rc)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	defs := make([]TierDefinition, 0, len(doc.Tiers))
	for _, t := range doc.Tiers {
		d := TierDefinition{
			Name:       t.Name,
			Rank:       t.Rank,
			Price:      t.Price,
			Daily:      make(map[Feature]int64, len(t.Daily)),
			Monthly:    make(map[Allowance]int64, len(t.Monthly)),
			CreditPass: t.CreditPass,
			PriceRef:   t.PriceRef,
		}
		for f, v := range t.Daily {
			d.Daily[f] = int64(v)
		}
		for a, v := range t.Monthly {
			d.Monthly[a] = int64(v)
		}
		defs = append(defs, d)
	}
	return defs, nil
}
