// Package model holds the typed shapes exchanged with the analytics API.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Wire names of the record fields returned by the analytics API.
const (
	FieldRegion     = "wilayah"
	FieldCases      = "jml_p"
	FieldDeaths     = "jml_m"
	FieldCluster    = "cluster"
	FieldPopulation = "jml_penduduk"
	FieldRate       = "ir"
	FieldPC1        = "pc1"
	FieldPC2        = "pc2"
)

var requiredFields = []string{FieldRegion, FieldCases, FieldDeaths, FieldCluster}

// ClusterID is an opaque cluster identifier. The API sends either a number
// (K-Means) or a label such as "Cluster 0" / "Noise (Outlier)" (DBSCAN);
// both are kept in canonical string form.
type ClusterID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (c *ClusterID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode cluster id")
		}
		*c = ClusterID(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrapf(err, "model: cluster id %s is neither string nor number", data)
	}
	*c = ClusterID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// IsNoise reports whether the identifier marks DBSCAN noise / outliers.
func (c ClusterID) IsNoise() bool {
	s := strings.TrimSpace(string(c))
	return s == "-1" || strings.Contains(strings.ToLower(s), "noise")
}

func (c ClusterID) String() string { return string(c) }

// Record is one per-region row of a clustering result.
type Record struct {
	Region     string
	Cases      int
	Deaths     int
	Cluster    ClusterID
	Population *int
	Rate       *float64
	PC1        *float64
	PC2        *float64

	// Extra holds attributes the dashboard does not interpret. They are
	// passed through for display only.
	Extra map[string]any

	missing []string
}

// UnmarshalJSON decodes a record, remembering which required fields were
// absent so that ValidateRecords can reject it at the fetch boundary.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode record")
	}

	*r = Record{}
	for _, f := range requiredFields {
		// A null region name is tolerated; it simply never joins.
		if v, ok := raw[f]; !ok || (isNull(v) && f != FieldRegion) {
			r.missing = append(r.missing, f)
		}
	}

	if v, ok := raw[FieldRegion]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &r.Region); err != nil {
			// Some sheets carry numeric region codes in the name column.
			r.Region = strings.Trim(string(v), `"`)
		}
	}
	var err error
	if r.Cases, err = intField(raw, FieldCases); err != nil {
		return err
	}
	if r.Deaths, err = intField(raw, FieldDeaths); err != nil {
		return err
	}
	if v, ok := raw[FieldCluster]; ok {
		if err := r.Cluster.UnmarshalJSON(v); err != nil {
			return err
		}
	}
	if v, ok := raw[FieldPopulation]; ok && !isNull(v) {
		n, err := intField(raw, FieldPopulation)
		if err != nil {
			return err
		}
		r.Population = &n
	}
	if r.Rate, err = floatPtrField(raw, FieldRate); err != nil {
		return err
	}
	if r.PC1, err = floatPtrField(raw, FieldPC1); err != nil {
		return err
	}
	if r.PC2, err = floatPtrField(raw, FieldPC2); err != nil {
		return err
	}

	for k, v := range raw {
		if isKnownField(k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return eris.Wrapf(err, "model: decode extra field %q", k)
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = val
	}
	return nil
}

// MarshalJSON writes the record back with the API's wire names; extra
// attributes are merged in unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldRegion] = r.Region
	out[FieldCases] = r.Cases
	out[FieldDeaths] = r.Deaths
	out[FieldCluster] = string(r.Cluster)
	if r.Population != nil {
		out[FieldPopulation] = *r.Population
	}
	if r.Rate != nil {
		out[FieldRate] = *r.Rate
	}
	if r.PC1 != nil {
		out[FieldPC1] = *r.PC1
	}
	if r.PC2 != nil {
		out[FieldPC2] = *r.PC2
	}
	return json.Marshal(out)
}

// Missing returns the required fields that were absent when decoding.
func (r Record) Missing() []string { return r.missing }

// Active is the number of cases that did not end in death.
func (r Record) Active() int { return r.Cases - r.Deaths }

// ValidationError lists records rejected at the fetch boundary.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "model: invalid records: " + strings.Join(e.Problems, "; ")
}

// ValidateRecords checks that every record carries the required fields.
func ValidateRecords(records []Record) error {
	var problems []string
	for i, r := range records {
		if len(r.missing) > 0 {
			problems = append(problems, "record "+strconv.Itoa(i)+" missing "+strings.Join(r.missing, ","))
		}
		if r.Cases < 0 || r.Deaths < 0 {
			problems = append(problems, "record "+strconv.Itoa(i)+" has negative counts")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Names returns the region names in record order.
func Names(records []Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Region
	}
	return names
}

func isKnownField(k string) bool {
	switch k {
	case FieldRegion, FieldCases, FieldDeaths, FieldCluster, FieldPopulation, FieldRate, FieldPC1, FieldPC2:
		return true
	}
	return false
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func intField(raw map[string]json.RawMessage, key string) (int, error) {
	f, err := floatPtrField(raw, key)
	if err != nil || f == nil {
		return 0, err
	}
	return int(math.Round(*f)), nil
}

func floatPtrField(raw map[string]json.RawMessage, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		// Numbers occasionally arrive quoted.
		var s string
		if err2 := json.Unmarshal(v, &s); err2 != nil {
			return nil, eris.Wrapf(err, "model: field %q is not numeric", key)
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if n == "" {
		return nil, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, eris.Wrapf(err, "model: field %q is not numeric", key)
	}
	return &f, nil
}
