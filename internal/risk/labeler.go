package risk

import (
	"sort"

	"github.com/sells-group/dengue-atlas/internal/model"
)

// NoiseRank is the rank of the noise tier; it sorts after every ranked tier.
const NoiseRank = -1

// Tier is a named severity level. Rank 0 is the lowest risk.
type Tier struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Noise bool   `json:"noise,omitempty"`
}

// Less orders tiers by rank with noise last.
func (t Tier) Less(o Tier) bool {
	if t.Noise != o.Noise {
		return !t.Noise
	}
	return t.Rank < o.Rank
}

// LabeledRecord is a record with its severity tier. OriginalCluster keeps the
// identifier the API assigned.
type LabeledRecord struct {
	Record          model.Record    `json:"record"`
	OriginalCluster model.ClusterID `json:"cluster_original"`
	Tier            Tier            `json:"tier"`
}

// ClusterStat summarizes one cluster's position in the ranking.
type ClusterStat struct {
	Cluster   model.ClusterID `json:"cluster"`
	MeanCases float64         `json:"mean_cases"`
	Size      int             `json:"size"`
	Tier      Tier            `json:"tier"`
}

// Labeler assigns tiers using a Scheme.
type Labeler struct {
	Scheme Scheme
}

// NewLabeler returns a Labeler for s; an empty name list gets DefaultNames.
func NewLabeler(s Scheme) *Labeler {
	if len(s.Names) == 0 {
		s.Names = DefaultScheme().Names
	}
	if s.Overflow == "" {
		s.Overflow = OverflowSynthesize
	}
	return &Labeler{Scheme: s}
}

// Label ranks the clusters present in records by mean case count, ascending,
// and labels every record with its cluster's tier. Clusters with equal means
// keep the order in which they first appear. Output order matches input.
func (l *Labeler) Label(records []model.Record) []LabeledRecord {
	stats := l.Rank(records)
	tiers := make(map[model.ClusterID]Tier, len(stats))
	for _, s := range stats {
		tiers[s.Cluster] = s.Tier
	}

	out := make([]LabeledRecord, len(records))
	for i, r := range records {
		out[i] = LabeledRecord{Record: r, OriginalCluster: r.Cluster, Tier: tiers[r.Cluster]}
	}
	return out
}

// Rank computes per-cluster statistics and tiers, lowest risk first; the
// noise bucket, if any, comes last.
func (l *Labeler) Rank(records []model.Record) []ClusterStat {
	type acc struct {
		sum  int
		size int
	}
	var order []model.ClusterID
	groups := make(map[model.ClusterID]*acc)
	var noiseOrder []model.ClusterID

	for _, r := range records {
		if l.Scheme.SeparateNoise && r.Cluster.IsNoise() {
			if _, seen := groups[r.Cluster]; !seen {
				groups[r.Cluster] = &acc{}
				noiseOrder = append(noiseOrder, r.Cluster)
			}
			groups[r.Cluster].sum += r.Cases
			groups[r.Cluster].size++
			continue
		}
		g, ok := groups[r.Cluster]
		if !ok {
			g = &acc{}
			groups[r.Cluster] = g
			order = append(order, r.Cluster)
		}
		g.sum += r.Cases
		g.size++
	}

	stats := make([]ClusterStat, 0, len(order)+len(noiseOrder))
	for _, id := range order {
		g := groups[id]
		stats = append(stats, ClusterStat{Cluster: id, MeanCases: float64(g.sum) / float64(g.size), Size: g.size})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].MeanCases < stats[j].MeanCases })
	for i := range stats {
		stats[i].Tier = Tier{Name: l.Scheme.nameFor(i), Rank: i}
	}

	if len(noiseOrder) > 0 {
		noiseTier := Tier{Name: l.Scheme.noiseLabel(), Rank: NoiseRank, Noise: true}
		for _, id := range noiseOrder {
			g := groups[id]
			stats = append(stats, ClusterStat{Cluster: id, MeanCases: float64(g.sum) / float64(g.size), Size: g.size, Tier: noiseTier})
		}
	}
	return stats
}
