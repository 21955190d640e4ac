// Package report renders the summary of a cleaning run as Markdown, YAML,
// JSON or a terminal table.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/medclean-cli/internal/cleaning"
	"github.com/KaramelBytes/medclean-cli/internal/record"
)

// Summary is the read-only outcome of one run. A nil pipeline section means
// that pipeline did not run.
type Summary struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at" yaml:"finished_at"`
	DryRun     bool                 `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Entry      *cleaning.EntryStats `json:"entry,omitempty" yaml:"entry,omitempty"`
	BBox       *cleaning.BBoxStats  `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	Notes      []string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// AddNote records a free-form remark such as a missing source.
func (s *Summary) AddNote(format string, args ...any) {
	s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
}

// Markdown renders the cleaning report file.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Data Cleaning Report\n\n")
	if e := s.Entry; e != nil {
		b.WriteString(fmt.Sprintf("## %s\n\n", e.Source))
		b.WriteString(fmt.Sprintf("- **Initial Rows**: %d\n", e.Initial))
		b.WriteString(fmt.Sprintf("- **Rows after cleaning (Gender/Image)**: %d\n", e.Validated))
		b.WriteString(fmt.Sprintf("- **Age Cleaning**: Replaced outliers with median age (%d).", e.MedianAge))
		if e.Imputed > 0 {
			b.WriteString(fmt.Sprintf(" %d values imputed.", e.Imputed))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("- **Duplicates Removed**: %d\n", e.DuplicatesRemoved))
		b.WriteString(fmt.Sprintf("- **Final Rows**: %d\n", e.Final))
		writeRejections(&b, e.Rejected, e.Rejections)
		b.WriteString("\n")
	}
	if x := s.BBox; x != nil {
		b.WriteString(fmt.Sprintf("## %s\n\n", x.Source))
		b.WriteString(fmt.Sprintf("- **Initial Rows**: %d\n", x.Initial))
		b.WriteString(fmt.Sprintf("- **Final Rows**: %d\n", x.Final))
		writeRejections(&b, x.Rejected, x.Rejections)
		b.WriteString("\n")
	}
	if len(s.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range s.Notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return b.String()
}

func writeRejections(b *strings.Builder, total int, hist map[record.Code]int) {
	b.WriteString(fmt.Sprintf("- **Rejected Rows**: %d\n", total))
	for _, c := range sortedCodes(hist) {
		b.WriteString(fmt.Sprintf("  - %s: %d\n", c.Label(), hist[c]))
	}
}

func sortedCodes(hist map[record.Code]int) []record.Code {
	codes := make([]record.Code, 0, len(hist))
	for c := range hist {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// YAML renders the machine-readable summary.
func (s *Summary) YAML() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal summary yaml: %w", err)
	}
	return b, nil
}

// JSON renders the summary as indented JSON.
func (s *Summary) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal summary json: %w", err)
	}
	return b, nil
}

// Render returns the summary in the named format (table, markdown, yaml or
// json).
func (s *Summary) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "table":
		var buf bytes.Buffer
		if err := s.Console(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "", "markdown", "md":
		return []byte(s.Markdown()), nil
	case "yaml", "yml":
		return s.YAML()
	case "json":
		return s.JSON()
	}
	return nil, fmt.Errorf("unsupported report format: %s", format)
}

// Console writes a colourised per-pipeline table followed by any notes.
func (s *Summary) Console(w io.Writer) error {
	head := color.New(color.FgHiBlue, color.Bold)
	good := color.New(color.FgHiGreen, color.Bold)
	bad := color.New(color.FgHiRed, color.Bold)
	dim := color.New(color.FgHiBlack)

	table := tablewriter.NewWriter(w)
	table.Header("Source", "Initial", "Rejected", "Duplicates", "Median Age", "Final")
	if e := s.Entry; e != nil {
		if err := table.Append([]string{
			head.Sprint(e.Source),
			strconv.Itoa(e.Initial),
			bad.Sprint(e.Rejected),
			strconv.Itoa(e.DuplicatesRemoved),
			fmt.Sprintf("%d (%d imputed)", e.MedianAge, e.Imputed),
			good.Sprint(e.Final),
		}); err != nil {
			return fmt.Errorf("append entry row: %w", err)
		}
	}
	if x := s.BBox; x != nil {
		if err := table.Append([]string{
			head.Sprint(x.Source),
			strconv.Itoa(x.Initial),
			bad.Sprint(x.Rejected),
			dim.Sprint("-"),
			dim.Sprint("-"),
			good.Sprint(x.Final),
		}); err != nil {
			return fmt.Errorf("append bbox row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	for _, n := range s.Notes {
		if _, err := color.New(color.FgHiYellow).Fprintf(w, "⚠ %s\n", n); err != nil {
			return err
		}
	}
	return nil
}
