package cleaning

import "github.com/KaramelBytes/medclean-cli/internal/record"

// Deduplicate keeps the first occurrence of every distinct field set, in
// input order. Two records are duplicates only when they have the same keys
// with the same values.
func Deduplicate(recs []*record.Raw) []*record.Raw {
	seen := make(map[string]struct{}, len(recs))
	out := make([]*record.Raw, 0, len(recs))
	for _, r := range recs {
		fp := r.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out
}
