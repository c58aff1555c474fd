package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// USNGField is the identifying key every grid entry must carry.
const USNGField = "usng"

// GridEntry is one USNG grid square as read from the input dataset. Only the
// usng field is interpreted; every other field is carried through verbatim.
type GridEntry map[string]any

// USNG returns the entry's identifier exactly as decoded (string or number).
// A present key with an empty string counts as an identifier; only a missing
// key or null does not.
func (g GridEntry) USNG() (any, bool) {
	v, ok := g[USNGField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Key returns the identifier as text, or "" when the entry has none.
func (g GridEntry) Key() string {
	v, ok := g.USNG()
	if !ok {
		return ""
	}
	return keyOf(v)
}

// Clone returns a deep copy so records never share nested maps or slices with
// the input dataset.
func (g GridEntry) Clone() GridEntry {
	if g == nil {
		return nil
	}
	out := make(GridEntry, len(g))
	for k, v := range g {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case GridEntry:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []float64:
		return append([]float64(nil), t...)
	default:
		return v
	}
}

func keyOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
