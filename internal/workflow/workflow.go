// Package workflow runs both cleaning pipelines end to end: read sources,
// clean, write the cleaned and rejected tables, the report and the run
// manifest.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/medclean-cli/internal/cleaning"
	"github.com/KaramelBytes/medclean-cli/internal/record"
	"github.com/KaramelBytes/medclean-cli/internal/report"
	"github.com/KaramelBytes/medclean-cli/internal/runs"
	"github.com/KaramelBytes/medclean-cli/internal/tabular"
	"github.com/KaramelBytes/medclean-cli/internal/utils"
)

// Output file names.
const (
	EntryCleanedFile = "Data_Entry_Cleaned.csv"
	EntryBadFile     = "Data_Entry_Bad.csv"
	BBoxCleanedFile  = "BBox_List_Cleaned.csv"
	BBoxBadFile      = "BBox_List_Bad.csv"
	ReportFile       = "cleaning_report.md"
	SummaryFile      = "summary.yaml"
)

// Job describes one cleaning run.
type Job struct {
	EntryPath string
	BBoxPath  string
	// OutputDir receives every output. Required unless DryRun.
	OutputDir string
	// RunsDir, when set, also receives the manifest under <RunsDir>/<RunID>
	// so runs written elsewhere are still listed.
	RunsDir string
	RunID   string

	Read               tabular.Options
	ExtraGarbageLabels []string
	DryRun             bool
	Logger             *zap.Logger
}

// Result bundles the pipeline outcomes of a run.
type Result struct {
	Summary *report.Summary
	Run     *runs.Run
	Entry   *cleaning.EntryResult
	BBox    *cleaning.BBoxResult
}

// Run executes job. Missing or unreadable sources skip their pipeline and are
// recorded as notes; only output failures are returned as errors.
func Run(ctx context.Context, job Job) (*Result, error) {
	log := job.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if !job.DryRun && job.OutputDir == "" {
		return nil, errors.New("output directory not set")
	}
	run := runs.New(job.RunID, job.OutputDir)
	sum := &report.Summary{RunID: run.ID, StartedAt: run.CreatedAt, DryRun: job.DryRun}
	run.Summary = sum
	res := &Result{Summary: sum, Run: run}
	log = log.With(zap.String("run_id", run.ID))

	if job.EntryPath != "" {
		tbl, in := readSource(log, sum, "entry", job.EntryPath, job.Read)
		run.Inputs = append(run.Inputs, in)
		if tbl != nil {
			rows := make([]*record.Raw, len(tbl.Rows))
			for i, r := range tbl.Rows {
				rows[i] = record.New(tbl.Header, r, true)
			}
			c := cleaning.NewEntryCleaner(cleaning.EntryOptions{
				ExtraGarbageLabels: job.ExtraGarbageLabels,
				Logger:             log,
			})
			res.Entry = c.Run(tbl.Name, rows)
			sum.Entry = &res.Entry.Stats
			if !job.DryRun {
				if err := writeEntry(run, job.OutputDir, canonicalHeader(tbl.Header), res.Entry); err != nil {
					return res, err
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if job.BBoxPath != "" {
		tbl, in := readSource(log, sum, "bbox", job.BBoxPath, job.Read)
		run.Inputs = append(run.Inputs, in)
		if tbl != nil {
			rows := make([]*record.Raw, len(tbl.Rows))
			for i, r := range tbl.Rows {
				rows[i] = record.New(tbl.Header, r, false)
			}
			res.BBox = cleaning.NewBBoxCleaner(cleaning.BBoxOptions{Logger: log}).Run(tbl.Name, rows)
			sum.BBox = &res.BBox.Stats
			if !job.DryRun {
				if err := writeBBox(run, job.OutputDir, tbl.Header, res.BBox); err != nil {
					return res, err
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	sum.FinishedAt = time.Now().UTC()
	if job.DryRun {
		return res, nil
	}
	if err := writeSummary(run, job.OutputDir, sum); err != nil {
		return res, err
	}
	if err := run.Save(); err != nil {
		return res, fmt.Errorf("save run manifest: %w", err)
	}
	if job.RunsDir != "" {
		mirror := filepath.Join(job.RunsDir, run.ID)
		if filepath.Clean(mirror) != filepath.Clean(job.OutputDir) {
			if err := run.SaveIn(mirror); err != nil {
				return res, fmt.Errorf("record run: %w", err)
			}
		}
	}
	log.Info("run complete", zap.String("output_dir", job.OutputDir), zap.Int("outputs", len(run.Outputs)))
	return res, nil
}

// readSource loads one table. A failure becomes a summary note and a nil table.
func readSource(log *zap.Logger, sum *report.Summary, role, path string, opt tabular.Options) (*tabular.Table, runs.Input) {
	in := runs.Input{Role: role, Path: path}
	name := filepath.Base(path)
	tbl, err := tabular.ReadFile(path, opt)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("source not found, skipping pipeline", zap.String("role", role), zap.String("path", path))
		sum.AddNote("Error: %s not found.", name)
		return nil, in
	case err != nil:
		log.Error("source unreadable, skipping pipeline", zap.String("role", role), zap.String("path", path), zap.Error(err))
		sum.AddNote("Error: %s could not be read: %v", name, err)
		return nil, in
	}
	in.Found = true
	in.Rows = len(tbl.Rows)
	return tbl, in
}

// canonicalHeader trims header names and drops later repeats, matching the
// keys of records built with canonical names.
func canonicalHeader(header []string) []string {
	seen := make(map[string]bool, len(header))
	out := make([]string, 0, len(header))
	for _, h := range header {
		h = record.CanonicalKey(h)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func writeEntry(run *runs.Run, dir string, header []string, res *cleaning.EntryResult) error {
	if len(res.Accepted) > 0 {
		rows := make([][]string, len(res.Accepted))
		for i, r := range res.Accepted {
			rows[i] = r.Row(header)
		}
		if err := writeTable(run, dir, EntryCleanedFile, header, rows); err != nil {
			return err
		}
	}
	return writeRejected(run, dir, EntryBadFile, header, res.Rejected)
}

func writeBBox(run *runs.Run, dir string, header []string, res *cleaning.BBoxResult) error {
	if len(res.Accepted) > 0 {
		rows := make([][]string, len(res.Accepted))
		for i, b := range res.Accepted {
			rows[i] = b.Row()
		}
		if err := writeTable(run, dir, BBoxCleanedFile, record.BBoxHeader, rows); err != nil {
			return err
		}
	}
	return writeRejected(run, dir, BBoxBadFile, header, res.Rejected)
}

func writeRejected(run *runs.Run, dir, name string, header []string, rej []cleaning.Rejected) error {
	if len(rej) == 0 {
		return nil
	}
	rows := make([][]string, len(rej))
	for i, r := range rej {
		rows[i] = r.Row(header)
	}
	out := append(append([]string(nil), header...), record.FieldRejectionReason)
	return writeTable(run, dir, name, out, rows)
}

func writeTable(run *runs.Run, dir, name string, header []string, rows [][]string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := tabular.WriteCSV(path, header, rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	run.AddOutput(path)
	return nil
}

func writeSummary(run *runs.Run, dir string, sum *report.Summary) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	md := filepath.Join(dir, ReportFile)
	if err := utils.SafeWriteFile(md, []byte(sum.Markdown())); err != nil {
		return fmt.Errorf("write %s: %w", ReportFile, err)
	}
	run.AddOutput(md)
	y, err := sum.YAML()
	if err != nil {
		return err
	}
	sy := filepath.Join(dir, SummaryFile)
	if err := utils.SafeWriteFile(sy, y); err != nil {
		return fmt.Errorf("write %s: %w", SummaryFile, err)
	}
	run.AddOutput(sy)
	return nil
}
