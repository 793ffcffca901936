package region

import (
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/boundary"
)

// DefaultSampleSize is the number of leading features used as evidence.
const DefaultSampleSize = 10

// TiePolicy decides which candidate key wins when two keys match the same
// number of sampled features.
type TiePolicy string

const (
	// TieLatest lets the later key in enumeration order win ties.
	TieLatest TiePolicy = "latest"
	// TieEarliest keeps the earlier key on ties.
	TieEarliest TiePolicy = "earliest"
)

// ResolveOptions tunes key resolution.
type ResolveOptions struct {
	SampleSize int
	Tie        TiePolicy
	// Logger receives a debug entry when no key resolves. Nil uses zap.L().
	Logger *zap.Logger
}

// Resolution is the outcome of ResolveKey together with the evidence behind it.
type Resolution struct {
	Key   string `json:"key,omitempty"`
	Found bool   `json:"found"`
	// Attempted is false when the document or the name list was empty.
	Attempted bool `json:"attempted"`
	// Matches is the winning key's score.
	Matches    int            `json:"matches"`
	Sampled    int            `json:"sampled"`
	Candidates []string       `json:"candidates"`
	Scores     map[string]int `json:"scores,omitempty"`
	// SampleNames is a few normalized reference names, for diagnostics.
	SampleNames []string `json:"sample_names,omitempty"`
}

const diagnosticNames = 5

// ResolveKey determines which attribute key of doc's features holds region
// names, by counting how many of the first SampleSize features have a value
// that normalizes to one of names. Candidate keys come from feature 0 only.
// Failure to resolve is a normal outcome, reported by Found=false.
func ResolveKey(doc *boundary.Document, names []string, opts ResolveOptions) Resolution {
	if doc.Len() == 0 || len(names) == 0 {
		return Resolution{}
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.Tie == "" {
		opts.Tie = TieLatest
	}

	ref := NameSet(names)

	sampled := min(opts.SampleSize, doc.Len())
	candidates := doc.Features[0].Attributes.Keys()

	res := Resolution{
		Attempted:   true,
		Sampled:     sampled,
		Candidates:  candidates,
		Scores:      make(map[string]int, len(candidates)),
		SampleNames: sampleOf(names, diagnosticNames),
	}

	best := 0
	for _, key := range candidates {
		count := 0
		for _, f := range doc.Features[:sampled] {
			v, ok := f.Attributes.Get(key)
			if !ok {
				continue
			}
			if _, hit := ref[NormalizeValue(v)]; hit {
				count++
			}
		}
		res.Scores[key] = count

		if count > 0 && (count > best || (opts.Tie == TieLatest && count == best)) {
			best = count
			res.Key = key
		}
	}

	if res.Key == "" {
		log := opts.Logger
		if log == nil {
			log = zap.L()
		}
		log.Debug("region: no attribute key matched reference names",
			zap.Strings("candidates", candidates),
			zap.Strings("sample_names", res.SampleNames),
			zap.Int("sampled", sampled),
		)
		return res
	}

	res.Found = true
	res.Matches = best
	return res
}

// NameSet returns the set of normalized names, excluding the empty key.
func NameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := Normalize(n); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func sampleOf(names []string, n int) []string {
	out := make([]string, 0, n)
	for _, name := range names {
		if len(out) == n {
			break
		}
		if k := Normalize(name); k != "" {
			out = append(out, k)
		}
	}
	return out
}
