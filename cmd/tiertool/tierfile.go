package main

import (
	"fmt"
	"io"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// tierFile is the on-disk tier table:
//
//	tiers:
//	  - min: 0
//	    max: 5000000
//	    percentage: 3
//	  - min: 5000000
//	    percentage: 5
type tierFile struct {
	Tiers []tierEntry `yaml:"tiers"`
}

type tierEntry struct {
	Min        amount  `yaml:"min"`
	Max        *amount `yaml:"max,omitempty"`
	Percentage amount  `yaml:"percentage"`
}

// amount reads YAML ints, floats and quoted strings without going through float64.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

func (a amount) MarshalYAML() (interface{}, error) {
	tag := "!!float"
	if a.IsInteger() {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: a.String()}, nil
}

func readTierFile(r io.Reader) ([]commission.CommissionTier, error) {
	var f tierFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse tier file: %w", err)
	}

	tiers := make([]commission.CommissionTier, 0, len(f.Tiers))
	for i, e := range f.Tiers {
		req := commission.CreateTierRequest{MinAmount: e.Min.Decimal, Percentage: e.Percentage.Decimal}
		if e.Max != nil {
			upper := e.Max.Decimal
			req.MaxAmount = &upper
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("tier %d: %w", i+1, err)
		}
		tiers = append(tiers, commission.CommissionTier{
			ID:         fmt.Sprintf("#%d", i+1),
			MinAmount:  req.MinAmount,
			MaxAmount:  req.MaxAmount,
			Percentage: req.Percentage,
		})
	}
	return tiers, nil
}

func writeTierFile(w io.Writer, tiers []commission.CommissionTier) error {
	var f tierFile
	for _, t := range commission.SortTiers(tiers) {
		e := tierEntry{Min: amount{t.MinAmount}, Percentage: amount{t.Percentage}}
		if t.MaxAmount != nil {
			e.Max = &amount{*t.MaxAmount}
		}
		f.Tiers = append(f.Tiers, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to write tier file: %w", err)
	}
	return enc.Close()
}
