package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// bboxRow uses the header spellings found in the raw export.
func bboxRow(img, x, y, w, h string) *record.Raw {
	return record.FromPairs(
		"Image Index", img,
		"Finding Label", "Atelectasis",
		"bbox_x ", x,
		"bbox-y", y,
		"width", w,
		"height", h,
		"Unnamed: 6", "",
	)
}

func TestBBoxValidate_Accepts(t *testing.T) {
	c := NewBBoxCleaner(BBoxOptions{})
	box, rej := c.Validate(1, bboxRow("IMG_00013118_008.png", "225.08", "547.01", "86.78", "79.18"))
	require.Nil(t, rej)
	assert.Equal(t, "IMG_00013118_008.png", box.ImageIndex, "bbox identifiers are kept verbatim")
	assert.Equal(t, "Atelectasis", box.FindingLabel)
	assert.Equal(t, []string{"IMG_00013118_008.png", "Atelectasis", "225.08", "547.01", "86.78", "79.18"}, box.Row())
}

func TestBBoxValidate_HeaderVariants(t *testing.T) {
	c := NewBBoxCleaner(BBoxOptions{})
	raw := record.FromPairs("Image Index", "a.png", "bbox_x", "1", "bbox_y", "2", " width ", "3", "height", "4")
	box, rej := c.Validate(1, raw)
	require.Nil(t, rej)
	assert.Equal(t, BBox{ImageIndex: "a.png", X: 1, Y: 2, Width: 3, Height: 4}, *box)
}

func TestBBoxValidate_MissingFieldsDefaultToZero(t *testing.T) {
	c := NewBBoxCleaner(BBoxOptions{})
	raw := record.FromPairs("Image Index", "a.png", "width", "3", "height", "4")
	box, rej := c.Validate(1, raw)
	require.Nil(t, rej)
	assert.Zero(t, box.X)
	assert.Zero(t, box.Y)

	_, rej = c.Validate(2, record.FromPairs("Image Index", "a.png", "bbox_x", "1"))
	require.NotNil(t, rej)
	assert.Equal(t, "Invalid Coordinates: x=1, y=0, w=0, h=0", rej.Reason.String())
}

func TestBBoxValidate_Rejects(t *testing.T) {
	c := NewBBoxCleaner(BBoxOptions{})
	tests := []struct {
		name   string
		row    *record.Raw
		code   record.Code
		reason string
	}{
		{"invalid image", bboxRow("invalid_image_3.png", "1", "1", "1", "1"), record.CodeInvalidImageIndex, "Invalid Image Index"},
		{"missing image", bboxRow("missing_image", "1", "1", "1", "1"), record.CodeInvalidImageIndex, "Invalid Image Index"},
		{"zero width", bboxRow("a.png", "10", "10", "0", "5"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=10, y=10, w=0, h=5"},
		{"x at bound", bboxRow("a.png", "5000", "10", "1", "5"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=5000, y=10, w=1, h=5"},
		{"negative y", bboxRow("a.png", "1", "-2.5", "1", "5"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=1, y=-2.5, w=1, h=5"},
		{"huge height", bboxRow("a.png", "1", "1", "1", "99999"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=1, y=1, w=1, h=99999"},
		{"large values stay decimal", bboxRow("a.png", "1", "1", "1", "1000000"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=1, y=1, w=1, h=1000000"},
		{"tiny width stays decimal", bboxRow("a.png", "1", "1", "0.0000001", "1e7"), record.CodeInvalidCoordinates, "Invalid Coordinates: x=1, y=1, w=0.0000001, h=10000000"},
		{"text", bboxRow("a.png", "abc", "1", "1", "1"), record.CodeMalformedCoordinates, "Malformed Coordinates"},
		{"empty cell", bboxRow("a.png", "1", "", "1", "1"), record.CodeMalformedCoordinates, "Malformed Coordinates"},
		{"hex coordinate", bboxRow("a.png", "0x1p4", "1", "1", "1"), record.CodeMalformedCoordinates, "Malformed Coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, rej := c.Validate(1, tt.row)
			require.Nil(t, box)
			require.NotNil(t, rej)
			assert.Equal(t, tt.code, rej.Reason.Code)
			assert.Equal(t, tt.reason, rej.Reason.String())
			assert.Same(t, tt.row, rej.Record)
		})
	}
}

func TestBBoxValidate_MalformedRecordsField(t *testing.T) {
	c := NewBBoxCleaner(BBoxOptions{})
	_, rej := c.Validate(1, bboxRow("a.png", "1", "1", "wide", "1"))
	require.NotNil(t, rej)
	field, ok := rej.Reason.Param("field")
	require.True(t, ok)
	assert.Equal(t, record.FieldWidth, field)
}

func TestBBoxRun(t *testing.T) {
	rows := []*record.Raw{
		bboxRow("a.png", "1", "2", "3", "4"),
		bboxRow("a.png", "1", "2", "3", "4"),
		bboxRow("b.png", "4999.99", "0", "4999.99", "0.01"),
		bboxRow("c.png", "1", "2", "0", "4"),
		bboxRow("invalid_image.png", "1", "2", "3", "4"),
		bboxRow("d.png", "x", "2", "3", "4"),
	}
	res := NewBBoxCleaner(BBoxOptions{}).Run("BBox_List.csv", rows)

	assert.Equal(t, 6, res.Stats.Initial)
	assert.Equal(t, 3, res.Stats.Final, "duplicates are kept")
	assert.Equal(t, 3, res.Stats.Rejected)
	assert.Equal(t, map[record.Code]int{
		record.CodeInvalidCoordinates:   1,
		record.CodeInvalidImageIndex:    1,
		record.CodeMalformedCoordinates: 1,
	}, res.Stats.Rejections)
	for _, b := range res.Accepted {
		assert.True(t, b.Valid())
		assert.GreaterOrEqual(t, b.X, 0.0)
		assert.Less(t, b.X, 5000.0)
		assert.Greater(t, b.Width, 0.0)
		assert.Less(t, b.Height, 5000.0)
	}
	assert.Equal(t, []int{4, 5, 6}, []int{res.Rejected[0].Line, res.Rejected[1].Line, res.Rejected[2].Line})
}
