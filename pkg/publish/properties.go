package publish

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Properties is a JF2 property set: property names mapped to strings,
// booleans, numbers, nested objects or arrays of those.
//
// Canonical values are string, bool, float64, []any and map[string]any. Use
// Canonicalize to coerce values decoded from other sources (YAML, Go
// literals) into that shape.
type Properties map[string]any

// Identity-preserving properties kept on a soft-deleted record.
var identityKeys = []string{"mp-slug", "post-type", "published", "type", "url"}

// Clone returns a deep copy of p. Mutating the copy never affects p.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	case Properties:
		return map[string]any(tv.Clone())
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// Equal reports whether p and other are structurally equal. Array order is
// significant, object key order is not, and numbers compare by value.
func (p Properties) Equal(other Properties) bool {
	return Equal(map[string]any(p), map[string]any(other))
}

// Equal reports whether two canonical property values are structurally equal.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case Properties:
		return Equal(map[string]any(av), b)
	case map[string]any:
		var bv map[string]any
		switch tb := b.(type) {
		case map[string]any:
			bv = tb
		case Properties:
			bv = tb
		default:
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Canonicalize returns a deep copy of p with every value coerced to its
// canonical shape. Values that cannot be represented (functions, channels,
// structs, non-finite numbers) yield an *InvalidPropertyError.
func Canonicalize(p Properties) (Properties, error) {
	out := make(Properties, len(p))
	for k, v := range p {
		if strings.TrimSpace(k) == "" {
			return nil, NewInvalidPropertyError(k, "empty property name")
		}
		cv, err := canonicalValue(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

func canonicalValue(key string, v any) (any, error) {
	switch tv := v.(type) {
	case nil:
		return nil, NewInvalidPropertyError(key, "null value")
	case string, bool:
		return tv, nil
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			ce, err := canonicalValue(key+"."+k, e)
			if err != nil {
				return nil, err
			}
			out[k] = ce
		}
		return out, nil
	case Properties:
		return canonicalValue(key, map[string]any(tv))
	case map[string]string:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = e
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			ks, ok := k.(string)
			if !ok {
				return nil, NewInvalidPropertyError(key, fmt.Sprintf("non-string key %v", k))
			}
			ce, err := canonicalValue(key+"."+ks, e)
			if err != nil {
				return nil, err
			}
			out[ks] = ce
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(tv))
		for _, e := range tv {
			ce, err := canonicalValue(key, e)
			if err != nil {
				return nil, err
			}
			out = append(out, ce)
		}
		return out, nil
	case []string:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = e
		}
		return out, nil
	case []map[string]any:
		out := make([]any, 0, len(tv))
		for _, e := range tv {
			ce, err := canonicalValue(key, e)
			if err != nil {
				return nil, err
			}
			out = append(out, ce)
		}
		return out, nil
	}
	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, NewInvalidPropertyError(key, "non-finite number")
		}
		return f, nil
	}
	return nil, NewInvalidPropertyError(key, fmt.Sprintf("unsupported value of type %T", v))
}

// String returns the property value when it is a string, or the first string
// of an array value.
func (p Properties) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Has reports whether key is present with a non-empty value.
func (p Properties) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	switch tv := v.(type) {
	case string:
		return strings.TrimSpace(tv) != ""
	case []any:
		return len(tv) > 0
	case map[string]any:
		return len(tv) > 0
	}
	return true
}

// Keys returns the property names sorted lexicographically.
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// stripToIdentity removes every property except the identity-preserving set.
func (p Properties) stripToIdentity() Properties {
	out := make(Properties, len(identityKeys)+1)
	for _, k := range identityKeys {
		if v, ok := p[k]; ok {
			out[k] = cloneValue(v)
		}
	}
	return out
}
