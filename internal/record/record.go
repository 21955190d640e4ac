// Package record holds the raw row representation shared by both cleaning
// pipelines and the header-name normalization used to look values up.
package record

import (
	"sort"
	"strconv"
	"strings"
)

// Raw is an ordered mapping of header name to raw cell value.
type Raw struct {
	keys   []string
	values map[string]string
}

// New builds a record from a header and a row. Short rows are padded with
// empty strings and cells past the header are ignored. When canonical is
// true, header names are passed through CanonicalKey first; a later column
// whose canonical name repeats an earlier one overwrites its value.
func New(header, row []string, canonical bool) *Raw {
	r := &Raw{values: make(map[string]string, len(header))}
	for i, h := range header {
		if canonical {
			h = CanonicalKey(h)
		}
		v := ""
		if i < len(row) {
			v = row[i]
		}
		r.Set(h, v)
	}
	return r
}

// FromPairs builds a record from alternating key/value strings.
func FromPairs(kv ...string) *Raw {
	r := &Raw{values: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// CanonicalKey strips incidental whitespace and a UTF-8 byte-order mark from
// a header name.
func CanonicalKey(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
}

// Keys returns header names in insertion order.
func (r *Raw) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len reports the number of fields.
func (r *Raw) Len() int { return len(r.keys) }

// Get returns the value stored under the exact key.
func (r *Raw) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value under the exact key or the empty string.
func (r *Raw) Value(key string) string { return r.values[key] }

// Set stores a value, appending the key if it is new.
func (r *Raw) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Clone returns an independent copy.
func (r *Raw) Clone() *Raw {
	c := &Raw{keys: r.Keys(), values: make(map[string]string, len(r.values))}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Lookup tries each alias in order, first as an exact key and then against
// the canonical form of every header, returning def when nothing matches.
func (r *Raw) Lookup(aliases []string, def string) string {
	if v, ok := r.find(aliases); ok {
		return v
	}
	return def
}

func (r *Raw) find(aliases []string) (string, bool) {
	for _, a := range aliases {
		if v, ok := r.values[a]; ok {
			return v, true
		}
		want := CanonicalKey(a)
		for _, k := range r.keys {
			if CanonicalKey(k) == want {
				return r.values[k], true
			}
		}
	}
	return "", false
}

// Row renders the values for the given header, empty where a key is absent.
func (r *Raw) Row(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r.values[h]
	}
	return out
}

// Fingerprint is an order-independent identity of the full field set.
// Each key and value is length-prefixed so distinct field sets never
// produce the same fingerprint.
func (r *Raw) Fingerprint() string {
	keys := r.Keys()
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := r.values[k]
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
