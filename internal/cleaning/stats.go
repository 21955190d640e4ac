package cleaning

import (
	"math"
	"sort"

	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// EntryStats are the counters of one entry-pipeline run.
type EntryStats struct {
	Source            string              `json:"source" yaml:"source"`
	Initial           int                 `json:"initial_rows" yaml:"initial_rows"`
	Validated         int                 `json:"validated_rows" yaml:"validated_rows"`
	Rejected          int                 `json:"rejected_rows" yaml:"rejected_rows"`
	Imputed           int                 `json:"imputed_ages" yaml:"imputed_ages"`
	MedianAge         int                 `json:"median_age" yaml:"median_age"`
	DuplicatesRemoved int                 `json:"duplicates_removed" yaml:"duplicates_removed"`
	Final             int                 `json:"final_rows" yaml:"final_rows"`
	Rejections        map[record.Code]int `json:"rejections,omitempty" yaml:"rejections,omitempty"`
}

// BBoxStats are the counters of one bounding-box pipeline run.
type BBoxStats struct {
	Source     string              `json:"source" yaml:"source"`
	Initial    int                 `json:"initial_rows" yaml:"initial_rows"`
	Rejected   int                 `json:"rejected_rows" yaml:"rejected_rows"`
	Final      int                 `json:"final_rows" yaml:"final_rows"`
	Rejections map[record.Code]int `json:"rejections,omitempty" yaml:"rejections,omitempty"`
}

func countReasons(rej []Rejected) map[record.Code]int {
	if len(rej) == 0 {
		return nil
	}
	out := make(map[record.Code]int)
	for _, r := range rej {
		out[r.Reason.Code]++
	}
	return out
}

// Median returns the statistical median of vals; even-length inputs yield
// the mean of the two middle values. The input is not modified.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// roundInt rounds half to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}
