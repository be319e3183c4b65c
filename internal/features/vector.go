package features

import "sort"

// Vector is a flat mapping from feature name to value. It is derived on every
// call and carries no identity.
type Vector map[string]float64

// Get returns the named feature or def when it is missing.
func (v Vector) Get(name string, def float64) float64 {
	if val, ok := v[name]; ok {
		return val
	}
	return def
}

// Merge returns a new vector holding v overlaid with other.
func (v Vector) Merge(other Vector) Vector {
	out := make(Vector, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}

// Names returns the feature names in lexical order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NonZero counts the features whose value is not zero.
func (v Vector) NonZero() int {
	n := 0
	for _, val := range v {
		if val != 0 {
			n++
		}
	}
	return n
}

// Ordered lays the vector out in the given column order, zero-filling any
// column the vector does not carry.
func (v Vector) Ordered(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = v[name]
	}
	return out
}
