package region

import "github.com/sells-group/dengue-atlas/internal/boundary"

// Status tells whether a feature found a matching record.
type Status string

const (
	StatusMatched Status = "matched"
	StatusNoData  Status = "no_data"
)

// NoRecord marks a feature without a matching record.
const NoRecord = -1

// Match is the join outcome for one feature.
type Match struct {
	// Feature is the index into the document's features.
	Feature int
	// Record is the index into the name list, or NoRecord.
	Record int
	Key    string
	Status Status
}

// Shadow describes a reference name hidden behind an earlier record with the
// same normalized key. The first record always wins.
type Shadow struct {
	Key      string `json:"key"`
	Kept     int    `json:"kept"`
	Shadowed int    `json:"shadowed"`
}

// JoinResult maps each feature to at most one record.
type JoinResult struct {
	Matches  []Match
	Shadowed []Shadow
	Matched  int
}

// Join pairs every feature with the first record, in input order, whose
// normalized name equals the feature's normalized value under res.Key.
// With no resolved key every feature is StatusNoData.
func Join(doc *boundary.Document, names []string, res Resolution) JoinResult {
	out := JoinResult{Matches: make([]Match, doc.Len())}

	index := make(map[string]int, len(names))
	for i, n := range names {
		k := Normalize(n)
		if k == "" {
			continue
		}
		if first, dup := index[k]; dup {
			out.Shadowed = append(out.Shadowed, Shadow{Key: k, Kept: first, Shadowed: i})
			continue
		}
		index[k] = i
	}

	for i := range out.Matches {
		m := Match{Feature: i, Record: NoRecord, Status: StatusNoData}
		if res.Found {
			v, _ := doc.Features[i].Attributes.Get(res.Key)
			m.Key = NormalizeValue(v)
			if idx, ok := index[m.Key]; ok && m.Key != "" {
				m.Record = idx
				m.Status = StatusMatched
				out.Matched++
			}
		}
		out.Matches[i] = m
	}
	return out
}
