package cleaning

import "strings"

// NoFinding replaces a label list that is empty after cleaning.
const NoFinding = "No Finding"

// DefaultGarbageLabels are placeholder labels that never carry a diagnosis.
var DefaultGarbageLabels = []string{"XYZ_Disease", "123", "Unknown_Disorder"}

// LabelSet is a set of labels to discard.
type LabelSet map[string]struct{}

// NewLabelSet returns the default garbage labels plus extra.
func NewLabelSet(extra ...string) LabelSet {
	s := make(LabelSet, len(DefaultGarbageLabels)+len(extra))
	for _, l := range DefaultGarbageLabels {
		s[l] = struct{}{}
	}
	for _, l := range extra {
		if l = strings.TrimSpace(l); l != "" {
			s[l] = struct{}{}
		}
	}
	return s
}

// Has reports whether label is in the set.
func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// CleanLabels drops empty, "None" and garbage segments from a pipe-joined
// label list and rejoins the survivors.
func CleanLabels(raw string, garbage LabelSet) string {
	var kept []string
	for _, seg := range strings.Split(raw, "|") {
		l := strings.TrimSpace(seg)
		if l == "" || l == "None" || garbage.Has(l) {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return NoFinding
	}
	return strings.Join(kept, "|")
}
