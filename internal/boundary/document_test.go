package boundary

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type":"Feature","id":1,"properties":{"OBJECTID":1,"NAMOBJ":"Tembalang","WADMKC":"Tembalang","LUAS":4.5},
     "geometry":{"type":"Polygon","coordinates":[[[110.43,-7.05],[110.44,-7.05],[110.44,-7.06],[110.43,-7.05]]]}},
    {"type":"Feature","properties":{"OBJECTID":2,"NAMOBJ":"Kel. Jatingaleh","WADMKC":"Candisari","LUAS":null},
     "geometry":null}
  ]
}`

func TestAttributes_PreservesSourceOrder(t *testing.T) {
	t.Parallel()

	var a Attributes
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":"x","mid":true,"nested":{"b":2}}`), &a))

	assert.Equal(t, []string{"zeta", "alpha", "mid", "nested"}, a.Keys())
	v, ok := a.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
	nested, _ := a.Get("nested")
	assert.Equal(t, map[string]any{"b": float64(2)}, nested)

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":true,"nested":{"b":2}}`, string(out))
}

func TestAttributes_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	t.Parallel()

	var a Attributes
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &a))
	assert.Equal(t, []string{"a", "b"}, a.Keys())
	v, _ := a.Get("a")
	assert.Equal(t, float64(3), v)
}

func TestAttributes_NullAndInvalid(t *testing.T) {
	t.Parallel()

	var a Attributes
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.Equal(t, 0, a.Len())

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &a))
}

func TestAttributes_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	a := NewAttributes("NAMOBJ", "Tembalang", "KODE", "3374")
	c := a.Clone()
	c.Set("risk", "Kritis")

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"NAMOBJ", "KODE", "risk"}, c.Keys())
	assert.Equal(t, map[string]any{"NAMOBJ": "Tembalang", "KODE": "3374"}, a.Map())
}

func TestDecode_FeatureCollection(t *testing.T) {
	t.Parallel()

	doc, err := Decode(strings.NewReader(sampleCollection))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Len())

	f0 := doc.Features[0]
	assert.Equal(t, []string{"OBJECTID", "NAMOBJ", "WADMKC", "LUAS"}, f0.Attributes.Keys())
	require.NotNil(t, f0.Geometry)
	poly, ok := f0.Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 4, poly.NumCoords())

	f1 := doc.Features[1]
	assert.Nil(t, f1.Geometry)
	v, ok := f1.Attributes.Get("LUAS")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDecode_SingleFeature(t *testing.T) {
	t.Parallel()

	doc, err := Decode(strings.NewReader(`{"type":"Feature","properties":{"nama":"Sendangmulyo"},"geometry":null}`))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Len())
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		empty bool
	}{
		{name: "empty collection", input: `{"type":"FeatureCollection","features":[]}`, empty: true},
		{name: "unsupported type", input: `{"type":"Polygon","coordinates":[]}`},
		{name: "malformed", input: `{"type":`},
		{name: "bad geometry", input: `{"type":"Feature","properties":{},"geometry":{"type":"Blob"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.empty, errors.Is(err, ErrEmptyDocument))
		})
	}
}

func TestDocument_LenNil(t *testing.T) {
	t.Parallel()

	var d *Document
	assert.Equal(t, 0, d.Len())
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Decode(strings.NewReader(sampleCollection))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc.Features))

	assert.Less(t, strings.Index(buf.String(), `"OBJECTID"`), strings.Index(buf.String(), `"NAMOBJ"`))

	again, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, again.Len())
	assert.Equal(t, doc.Features[0].Attributes.Keys(), again.Features[0].Attributes.Keys())
	assert.NotNil(t, again.Features[0].Geometry)
	assert.Nil(t, again.Features[1].Geometry)
}
