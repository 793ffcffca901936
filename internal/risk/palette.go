package risk

import "strings"

// Colors used by the map and tables.
const (
	ColorNoData  = "#cbd5e1"
	ColorUnknown = "#94a3b8"
)

// DefaultPalette maps tier names to fill colors.
var DefaultPalette = map[string]string{
	"Rendah":  "#4ade80",
	"Sedang":  "#facc15",
	"Kritis":  "#ef4444",
	"Level 4": "#7f1d1d",
	"Level 5": "#000000",
	"Noise":   "#94a3b8",
}

// Palette resolves tier colors. Keys are matched case-insensitively since
// config loaders lower-case map keys.
type Palette map[string]string

// NewPalette merges overrides onto DefaultPalette.
func NewPalette(overrides map[string]string) Palette {
	p := make(Palette, len(DefaultPalette)+len(overrides))
	for k, v := range DefaultPalette {
		p[strings.ToLower(k)] = v
	}
	for k, v := range overrides {
		p[strings.ToLower(k)] = v
	}
	return p
}

// Color returns the fill for a tier. Unlisted tiers get ColorUnknown.
func (p Palette) Color(t Tier) string {
	if c, ok := p[strings.ToLower(t.Name)]; ok {
		return c
	}
	if t.Noise {
		if c, ok := p[strings.ToLower(DefaultNoiseLabel)]; ok {
			return c
		}
	}
	return ColorUnknown
}
