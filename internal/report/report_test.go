package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/medclean-cli/internal/cleaning"
	"github.com/KaramelBytes/medclean-cli/internal/record"
)

func sample() *Summary {
	s := &Summary{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Entry: &cleaning.EntryStats{
			Source: "Data_Entry.csv", Initial: 10, Validated: 8, Rejected: 2,
			Imputed: 1, MedianAge: 25, DuplicatesRemoved: 1, Final: 7,
			Rejections: map[record.Code]int{record.CodeInvalidGender: 1, record.CodeInvalidImageIndex: 1},
		},
	}
	s.AddNote("Error: %s not found.", "BBox_List.csv")
	return s
}

func TestMarkdown(t *testing.T) {
	md := sample().Markdown()
	assert.Contains(t, md, "# Data Cleaning Report\n")
	assert.Contains(t, md, "## Data_Entry.csv\n")
	assert.Contains(t, md, "- **Initial Rows**: 10\n")
	assert.Contains(t, md, "- **Rows after cleaning (Gender/Image)**: 8\n")
	assert.Contains(t, md, "- **Age Cleaning**: Replaced outliers with median age (25).")
	assert.Contains(t, md, "- **Duplicates Removed**: 1\n")
	assert.Contains(t, md, "- **Final Rows**: 7\n")
	assert.Contains(t, md, "  - Invalid Image Index: 1\n  - Invalid/Missing Gender: 1\n")
	assert.Contains(t, md, "## Notes\n\n- Error: BBox_List.csv not found.\n")
	assert.NotContains(t, md, "BBox_List.csv\n\n- **Initial")
}

func TestMarkdown_BBoxOnly(t *testing.T) {
	s := &Summary{BBox: &cleaning.BBoxStats{Source: "BBox_List.csv", Initial: 3, Rejected: 1, Final: 2,
		Rejections: map[record.Code]int{record.CodeMalformedCoordinates: 1}}}
	md := s.Markdown()
	assert.Contains(t, md, "## BBox_List.csv\n\n- **Initial Rows**: 3\n- **Final Rows**: 2\n")
	assert.Contains(t, md, "  - Malformed Coordinates: 1\n")
	assert.NotContains(t, md, "Data_Entry")
}

func TestMachineReadable(t *testing.T) {
	s := sample()

	y, err := s.YAML()
	require.NoError(t, err)
	var back Summary
	require.NoError(t, yaml.Unmarshal(y, &back))
	assert.Equal(t, 7, back.Entry.Final)
	assert.Equal(t, 1, back.Entry.Rejections[record.CodeInvalidGender])
	assert.Nil(t, back.BBox)

	j, err := s.Render("JSON")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(j, &m))
	assert.Equal(t, "run-1", m["run_id"])
	assert.NotContains(t, m, "bbox")

	_, err = s.Render("html")
	assert.Error(t, err)
}

func TestConsole(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	s := sample()
	s.BBox = &cleaning.BBoxStats{Source: "BBox_List.csv", Initial: 4, Rejected: 1, Final: 3}
	var buf bytes.Buffer
	require.NoError(t, s.Console(&buf))
	out := buf.String()
	assert.Contains(t, out, "Data_Entry.csv")
	assert.Contains(t, out, "BBox_List.csv")
	assert.Contains(t, out, "25 (1 imputed)")
	assert.Contains(t, out, "⚠ Error: BBox_List.csv not found.")
}

func TestRender_TableAndMarkdownDiffer(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	s := sample()
	tbl, err := s.Render("table")
	require.NoError(t, err)
	assert.Contains(t, string(tbl), "25 (1 imputed)")
	assert.NotContains(t, string(tbl), "# Data Cleaning Report")

	md, err := s.Render("markdown")
	require.NoError(t, err)
	assert.Equal(t, s.Markdown(), string(md))
}
