// Package geo assigns selected ASes to geographic regions and hands out host
// addresses from each region's prefix.
package geo

import (
	"errors"
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/caida-topogen/pkg/validation"
)

// Region is a named share of the address plan.
type Region struct {
	Name       string  `yaml:"name" json:"name" validate:"required"`
	Proportion float64 `yaml:"proportion" json:"proportion" validate:"gt=0,lte=1"`
	CIDR       string  `yaml:"cidr" json:"cidr" validate:"required,cidrv4"`
}

// Prefix parses the region CIDR.
func (r Region) Prefix() (netip.Prefix, error) {
	p, err := netip.ParsePrefix(r.CIDR)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("region %q: %w", r.Name, err)
	}
	return p.Masked(), nil
}

// Region names used by the AS-number range table.
const (
	NorthAmerica = "North America"
	Europe       = "Europe"
	Asia         = "Asia"
	SouthAmerica = "South America"
	Africa       = "Africa"
	Oceania      = "Oceania"
)

// ProportionTolerance bounds how far region proportions may drift from 1.0.
const ProportionTolerance = 0.01

// DefaultRegions returns the built-in six-region plan.
func DefaultRegions() []Region {
	return []Region{
		{Name: NorthAmerica, Proportion: 0.30, CIDR: "10.0.0.0/12"},
		{Name: Europe, Proportion: 0.24, CIDR: "10.16.0.0/12"},
		{Name: Asia, Proportion: 0.30, CIDR: "10.32.0.0/12"},
		{Name: SouthAmerica, Proportion: 0.06, CIDR: "10.48.0.0/16"},
		{Name: Africa, Proportion: 0.06, CIDR: "10.49.0.0/16"},
		{Name: Oceania, Proportion: 0.04, CIDR: "10.50.0.0/16"},
	}
}

// Plan is an ordered region list plus the classifier that maps ASes onto it.
type Plan struct {
	Classifier string   `yaml:"classifier" json:"classifier" validate:"omitempty,oneof=asn-range proportional"`
	Regions    []Region `yaml:"regions" json:"regions" validate:"required,min=1,dive"`
}

// DefaultPlan is the built-in regions with the asn-range classifier.
func DefaultPlan() Plan {
	return Plan{Classifier: ASNRange, Regions: DefaultRegions()}
}

// ErrInvalidPlan wraps plan validation and decoding failures.
var ErrInvalidPlan = errors.New("invalid region plan")

// LoadPlan reads a YAML region plan. An empty classifier defaults to
// asn-range.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("%w: %s: %w", ErrInvalidPlan, path, err)
	}
	if p.Classifier == "" {
		p.Classifier = ASNRange
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks field tags, that proportions sum to 1.0 within
// ProportionTolerance, that prefixes are disjoint and that the asn-range
// classifier finds every region it can produce.
func (p Plan) Validate() error {
	if err := validation.Struct(&p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	names := make([]string, len(p.Regions))
	shares := make([]float64, len(p.Regions))
	prefixes := make([]netip.Prefix, len(p.Regions))
	for i, r := range p.Regions {
		names[i] = r.Name
		shares[i] = r.Proportion
		prefixes[i], _ = r.Prefix()
	}

	err := validation.NewConfigValidator("Plan").
		Unique("Regions", names).
		SumApprox("Regions.Proportion", shares, 1.0, ProportionTolerance).
		DisjointPrefixes("Regions.CIDR", names, prefixes).
		When(p.Classifier == ASNRange || p.Classifier == "", func(cv *validation.ConfigValidator) {
			for _, name := range rangeRegionNames() {
				cv.Custom("Regions", func() error {
					if p.index(name) < 0 {
						return fmt.Errorf("asn-range classifier needs region %q", name)
					}
					return nil
				})
			}
		}).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	return nil
}

func (p Plan) index(name string) int {
	for i, r := range p.Regions {
		if r.Name == name {
			return i
		}
	}
	return -1
}
