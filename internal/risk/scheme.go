// Package risk ranks clusters by mean case count and names them with an
// ordered severity vocabulary.
package risk

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// OverflowPolicy decides how clusters ranked past the named tiers are labeled.
type OverflowPolicy string

const (
	// OverflowSynthesize names rank i (zero-based) "Level {i+1}".
	OverflowSynthesize OverflowPolicy = "synthesize"
	// OverflowCollapse gives every overflow cluster the last named tier.
	OverflowCollapse OverflowPolicy = "collapse"
)

// Default tier vocabulary, lowest risk first.
var DefaultNames = []string{"Rendah", "Sedang", "Kritis", "Level 4", "Level 5"}

// DefaultNoiseLabel names the DBSCAN outlier bucket.
const DefaultNoiseLabel = "Noise"

// Scheme is an ordered tier vocabulary plus its edge-case policies.
type Scheme struct {
	Names    []string       `mapstructure:"names" json:"names"`
	Overflow OverflowPolicy `mapstructure:"overflow" json:"overflow"`
	// SeparateNoise keeps noise clusters out of the ranking and labels them
	// NoiseLabel instead.
	SeparateNoise bool   `mapstructure:"separate_noise" json:"separate_noise"`
	NoiseLabel    string `mapstructure:"noise_label" json:"noise_label"`
}

// DefaultScheme returns the five-tier vocabulary with synthesized overflow
// and a separate noise bucket.
func DefaultScheme() Scheme {
	names := make([]string, len(DefaultNames))
	copy(names, DefaultNames)
	return Scheme{
		Names:         names,
		Overflow:      OverflowSynthesize,
		SeparateNoise: true,
		NoiseLabel:    DefaultNoiseLabel,
	}
}

// Validate checks the scheme is usable.
func (s Scheme) Validate() error {
	if len(s.Names) == 0 {
		return eris.New("risk: scheme needs at least one tier name")
	}
	switch s.Overflow {
	case "", OverflowSynthesize, OverflowCollapse:
	default:
		return eris.Errorf("risk: unknown overflow policy %q", s.Overflow)
	}
	if s.SeparateNoise {
		if name, ok := s.tierNamed(s.noiseLabel()); ok {
			return eris.Errorf("risk: noise label %q collides with tier %q", s.noiseLabel(), name)
		}
	}
	return nil
}

// tierNamed reports whether label, ignoring case, is a name some rank can
// receive, including synthesized overflow names.
func (s Scheme) tierNamed(label string) (string, bool) {
	for _, n := range s.Names {
		if strings.EqualFold(n, label) {
			return n, true
		}
	}
	if s.Overflow == OverflowCollapse {
		return "", false
	}
	rest, ok := cutPrefixFold(label, "Level ")
	if !ok {
		return "", false
	}
	if n, err := strconv.Atoi(rest); err == nil && n > len(s.Names) {
		return "Level " + rest, true
	}
	return "", false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// nameFor returns the tier name for a zero-based rank.
func (s Scheme) nameFor(rank int) string {
	if rank < len(s.Names) {
		return s.Names[rank]
	}
	if s.Overflow == OverflowCollapse {
		return s.Names[len(s.Names)-1]
	}
	return "Level " + strconv.Itoa(rank+1)
}

func (s Scheme) noiseLabel() string {
	if s.NoiseLabel == "" {
		return DefaultNoiseLabel
	}
	return s.NoiseLabel
}
