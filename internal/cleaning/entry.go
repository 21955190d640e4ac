// Package cleaning implements the row validation, normalization, age
// imputation and de-duplication rules for the image entry and bounding-box
// tables.
package cleaning

import (
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// ImagePrefix is stripped from accepted image identifiers.
const ImagePrefix = "IMG_"

// invalidImageMarkers flag identifiers exported for rows without an image.
var invalidImageMarkers = []string{"invalid_image", "missing_image"}

var genderAliases = map[string]string{
	"female":  "F",
	"female ": "F",
	"F":       "F",
	"Male":    "M",
	"M":       "M",
}

// Rejected is an input row routed to the rejected output.
type Rejected struct {
	// Line is the 1-based data row number in the source.
	Line   int
	Record *record.Raw
	Reason record.Reason
}

// Row renders the rejected record for header followed by its reason text.
func (r Rejected) Row(header []string) []string {
	return append(r.Record.Row(header), r.Reason.String())
}

// Provisional is an entry row that passed validation but whose age is not
// final yet. Age is nil when the raw value could not be parsed.
type Provisional struct {
	Line   int
	Record *record.Raw
	Age    *float64
}

// EntryOptions configures an EntryCleaner.
type EntryOptions struct {
	ExtraGarbageLabels []string
	Logger             *zap.Logger
}

// EntryCleaner validates and normalizes image entry rows.
type EntryCleaner struct {
	garbage LabelSet
	log     *zap.Logger
}

// NewEntryCleaner creates an entry cleaner.
func NewEntryCleaner(opt EntryOptions) *EntryCleaner {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &EntryCleaner{garbage: NewLabelSet(opt.ExtraGarbageLabels...), log: log}
}

// EntryResult is the outcome of cleaning an entry table.
type EntryResult struct {
	Accepted []*record.Raw
	Rejected []Rejected
	Stats    EntryStats
}

// Run validates every row, imputes ages from the median of the valid ones
// and drops exact duplicates.
func (c *EntryCleaner) Run(source string, rows []*record.Raw) *EntryResult {
	res := &EntryResult{Stats: EntryStats{Source: source, Initial: len(rows)}}
	var prov []*Provisional
	for i, raw := range rows {
		p, rej := c.Validate(i+1, raw)
		if rej != nil {
			c.log.Debug("entry row rejected",
				zap.Int("line", rej.Line),
				zap.String("code", string(rej.Reason.Code)),
				zap.String("reason", rej.Reason.String()))
			res.Rejected = append(res.Rejected, *rej)
			continue
		}
		prov = append(prov, p)
	}
	res.Stats.Validated = len(prov)
	res.Stats.Rejected = len(res.Rejected)
	res.Stats.Rejections = countReasons(res.Rejected)

	median, imputed := ImputeAges(prov)
	res.Stats.MedianAge = median
	res.Stats.Imputed = imputed

	accepted := make([]*record.Raw, len(prov))
	for i, p := range prov {
		accepted[i] = p.Record
	}
	res.Accepted = Deduplicate(accepted)
	res.Stats.DuplicatesRemoved = len(accepted) - len(res.Accepted)
	res.Stats.Final = len(res.Accepted)

	c.log.Info("entry table cleaned",
		zap.String("source", source),
		zap.Int("initial", res.Stats.Initial),
		zap.Int("rejected", res.Stats.Rejected),
		zap.Int("median_age", median),
		zap.Int("imputed", imputed),
		zap.Int("duplicates_removed", res.Stats.DuplicatesRemoved),
		zap.Int("final", res.Stats.Final))
	return res
}

// Validate applies the entry rules in order and stops at the first failure.
// The input record is never modified; a rejection carries it unchanged.
func (c *EntryCleaner) Validate(line int, raw *record.Raw) (*Provisional, *Rejected) {
	img := raw.Value(record.FieldImageIndex)
	if isInvalidImage(img) {
		return nil, &Rejected{Line: line, Record: raw, Reason: record.NewReason(record.CodeInvalidImageIndex)}
	}

	gender := strings.TrimSpace(raw.Value(record.FieldGender))
	canon, ok := genderAliases[gender]
	if !ok {
		return nil, &Rejected{Line: line, Record: raw, Reason: record.NewReason(record.CodeInvalidGender, "gender", gender)}
	}

	out := raw.Clone()
	if strings.HasPrefix(img, ImagePrefix) {
		out.Set(record.FieldImageIndex, strings.TrimPrefix(img, ImagePrefix))
	}
	out.Set(record.FieldGender, canon)
	out.Set(record.FieldFindingLabels, CleanLabels(raw.Value(record.FieldFindingLabels), c.garbage))

	p := &Provisional{Line: line, Record: out}
	if age, ok := ParseAge(raw.Value(record.FieldPatientAge)); ok {
		p.Age = &age
	}
	return p, nil
}

func isInvalidImage(id string) bool {
	for _, m := range invalidImageMarkers {
		if strings.Contains(id, m) {
			return true
		}
	}
	return false
}

// ParseAge reads a free-form age such as "45Y", "061y" or "TWENTY FIVE".
// It reports false when the value is not a number.
func ParseAge(raw string) (float64, bool) {
	up := strings.ToUpper(raw)
	// the spelled-out form is matched before Y stripping would mangle it
	if strings.TrimSpace(up) == "TWENTY FIVE" {
		return 25, true
	}
	return parseFloat(strings.ReplaceAll(up, "Y", ""))
}

// parseFloat accepts surrounding whitespace and lets overflow through as an
// infinity, which the range checks then treat as invalid. Hexadecimal
// mantissas ("0x1p4") are not decimal numbers and are refused.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}
