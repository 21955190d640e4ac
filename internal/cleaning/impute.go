package cleaning

import (
	"strconv"

	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// Valid patient age range, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

func validAge(v float64) bool { return v >= MinAge && v <= MaxAge }

// MedianAge computes the rounded median of the resolved in-range candidate
// ages, or 0 when there are none.
func MedianAge(prov []*Provisional) int {
	var ages []float64
	for _, p := range prov {
		if p.Age != nil && validAge(*p.Age) {
			ages = append(ages, *p.Age)
		}
	}
	if len(ages) == 0 {
		return 0
	}
	return roundInt(Median(ages))
}

// ImputeAges finalizes the age of every provisional row. Unparsed or
// out-of-range candidates receive the median of the valid ones; the rest are
// rounded. It returns the median and how many rows were imputed.
func ImputeAges(prov []*Provisional) (median, imputed int) {
	median = MedianAge(prov)
	for _, p := range prov {
		age := median
		if p.Age == nil || !validAge(*p.Age) {
			imputed++
		} else {
			age = roundInt(*p.Age)
		}
		p.Record.Set(record.FieldPatientAge, strconv.Itoa(age))
	}
	return median, imputed
}
