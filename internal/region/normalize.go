// Package region matches boundary features to analytics records by
// normalized kelurahan name.
package region

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Administrative-unit tokens are deleted outright, not replaced by a space.
var adminTokens = regexp.MustCompile(`(kelurahan|kel\.|desa|kecamatan|kec\.)`)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// Normalize canonicalizes a region name into its join key: lower-cased,
// administrative tokens removed, everything outside [a-z0-9] stripped.
// Two names denote the same region iff their keys are equal.
//
// Stripping can expose a new token ("De sa" -> "desa"), so both steps repeat
// until the key stops changing. This keeps Normalize idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	n := cases.Lower(language.Und).String(s)
	for {
		next := adminTokens.ReplaceAllString(n, "")
		next = nonAlnum.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == n {
			return n
		}
		n = next
	}
}

// NormalizeValue normalizes an attribute or record value of any scalar type.
// nil, false, zero numbers and the empty string all yield "".
func NormalizeValue(v any) string {
	return Normalize(valueString(v))
}

// DisplayValue renders an attribute value the way NormalizeValue reads it,
// without normalizing.
func DisplayValue(v any) string {
	return valueString(v)
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case int64:
		if t == 0 {
			return ""
		}
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
