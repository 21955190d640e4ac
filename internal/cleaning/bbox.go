package cleaning

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// MaxCoordinate is the exclusive upper bound for positions and sizes.
const MaxCoordinate = 5000

// BBox is an accepted bounding-box annotation.
type BBox struct {
	ImageIndex   string
	FindingLabel string
	X, Y         float64
	Width        float64
	Height       float64
}

// Valid reports whether the box lies within the accepted geometry.
func (b BBox) Valid() bool {
	return b.X >= 0 && b.Y >= 0 && b.Width > 0 && b.Height > 0 &&
		b.X < MaxCoordinate && b.Y < MaxCoordinate && b.Width < MaxCoordinate && b.Height < MaxCoordinate
}

// Row renders the box in record.BBoxHeader order.
func (b BBox) Row() []string {
	return []string{
		b.ImageIndex,
		b.FindingLabel,
		strconv.FormatFloat(b.X, 'f', -1, 64),
		strconv.FormatFloat(b.Y, 'f', -1, 64),
		strconv.FormatFloat(b.Width, 'f', -1, 64),
		strconv.FormatFloat(b.Height, 'f', -1, 64),
	}
}

// BBoxOptions configures a BBoxCleaner.
type BBoxOptions struct {
	Logger *zap.Logger
}

// BBoxCleaner validates bounding-box rows. It never imputes or de-duplicates.
type BBoxCleaner struct {
	log *zap.Logger
}

// NewBBoxCleaner creates a bounding-box cleaner.
func NewBBoxCleaner(opt BBoxOptions) *BBoxCleaner {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &BBoxCleaner{log: log}
}

// BBoxResult is the outcome of cleaning a bounding-box table.
type BBoxResult struct {
	Accepted []BBox
	Rejected []Rejected
	Stats    BBoxStats
}

// Run validates every row.
func (c *BBoxCleaner) Run(source string, rows []*record.Raw) *BBoxResult {
	res := &BBoxResult{Stats: BBoxStats{Source: source, Initial: len(rows)}}
	for i, raw := range rows {
		box, rej := c.Validate(i+1, raw)
		if rej != nil {
			c.log.Debug("bbox row rejected",
				zap.Int("line", rej.Line),
				zap.String("code", string(rej.Reason.Code)),
				zap.String("reason", rej.Reason.String()))
			res.Rejected = append(res.Rejected, *rej)
			continue
		}
		res.Accepted = append(res.Accepted, *box)
	}
	res.Stats.Rejected = len(res.Rejected)
	res.Stats.Final = len(res.Accepted)
	res.Stats.Rejections = countReasons(res.Rejected)

	c.log.Info("bbox table cleaned",
		zap.String("source", source),
		zap.Int("initial", res.Stats.Initial),
		zap.Int("rejected", res.Stats.Rejected),
		zap.Int("final", res.Stats.Final))
	return res
}

var coordinateFields = []string{record.FieldBBoxX, record.FieldBBoxY, record.FieldWidth, record.FieldHeight}

// Validate checks one row. Missing coordinate columns count as 0.
func (c *BBoxCleaner) Validate(line int, raw *record.Raw) (*BBox, *Rejected) {
	img := raw.Lookup(record.AliasesFor(record.FieldImageIndex), "")
	if isInvalidImage(img) {
		return nil, &Rejected{Line: line, Record: raw, Reason: record.NewReason(record.CodeInvalidImageIndex)}
	}

	var v [4]float64
	for i, f := range coordinateFields {
		n, ok := parseFloat(raw.Lookup(record.AliasesFor(f), "0"))
		if !ok {
			return nil, &Rejected{Line: line, Record: raw, Reason: record.NewReason(record.CodeMalformedCoordinates, "field", f)}
		}
		v[i] = n
	}
	box := BBox{
		ImageIndex:   img,
		FindingLabel: raw.Lookup(record.AliasesFor(record.FieldFindingLabel), ""),
		X:            v[0],
		Y:            v[1],
		Width:        v[2],
		Height:       v[3],
	}
	if !box.Valid() {
		return nil, &Rejected{Line: line, Record: raw, Reason: record.NewReason(record.CodeInvalidCoordinates,
			"x", formatCoord(box.X),
			"y", formatCoord(box.Y),
			"w", formatCoord(box.Width),
			"h", formatCoord(box.Height))}
	}
	return &box, nil
}

func formatCoord(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
