package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/medclean-cli/internal/config"
	"github.com/KaramelBytes/medclean-cli/internal/runs"
	"github.com/KaramelBytes/medclean-cli/internal/tabular"
	"github.com/KaramelBytes/medclean-cli/internal/workflow"
)

var (
	cleanEntry        string
	cleanBBox         string
	cleanOutputDir    string
	cleanDelimiter    string
	cleanSheet        string
	cleanDryRun       bool
	cleanReportFormat string
	cleanQuiet        bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the entry and bounding-box tables",
	Long: `Clean validates Data_Entry and BBox_List exports, writes the cleaned and rejected rows
as CSV together with cleaning_report.md, summary.yaml and run.json, and prints a summary.
A missing source is reported and the other table is still cleaned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		entry := c.EntryPath
		if f.Changed("entry") {
			entry = cleanEntry
		}
		bbox := c.BBoxPath
		if f.Changed("bbox") {
			bbox = cleanBBox
		}
		if entry == "" && bbox == "" {
			return fmt.Errorf("nothing to clean: set --entry and/or --bbox")
		}
		delimName := c.Delimiter
		if f.Changed("delimiter") {
			delimName = cleanDelimiter
		}
		delim, err := tabular.ParseDelimiter(delimName)
		if err != nil {
			return err
		}
		sheet := c.Sheet
		if f.Changed("sheet") {
			sheet = cleanSheet
		}
		format := c.ReportFormat
		if f.Changed("report-format") {
			format = cleanReportFormat
		}
		if err := cfgpkg.CheckReportFormat(format); err != nil {
			return err
		}
		format = strings.ToLower(format)

		runsDir, err := expandHome(c.RunsDir)
		if err != nil {
			return err
		}
		id := runs.NewID()
		outDir := c.OutputDir
		if f.Changed("output") {
			outDir = cleanOutputDir
		}
		if outDir == "" {
			if runsDir == "" {
				return fmt.Errorf("no output directory: pass -o or set runs_dir")
			}
			outDir = filepath.Join(runsDir, id)
		}
		if outDir, err = expandHome(outDir); err != nil {
			return err
		}

		res, err := workflow.Run(cmd.Context(), workflow.Job{
			EntryPath:          entry,
			BBoxPath:           bbox,
			OutputDir:          outDir,
			RunsDir:            runsDir,
			RunID:              id,
			Read:               tabular.Options{Delimiter: delim, Sheet: sheet},
			ExtraGarbageLabels: c.ExtraGarbageLabels,
			DryRun:             cleanDryRun,
			Logger:             logger,
		})
		if err != nil {
			return err
		}
		if cleanQuiet {
			return nil
		}

		out := cmd.OutOrStdout()
		sum := res.Summary
		b, err := sum.Render(format)
		if err != nil {
			return err
		}
		if _, err := out.Write(b); err != nil {
			return err
		}
		if format != "table" {
			return nil
		}
		if cleanDryRun {
			fmt.Fprintln(out, "✓ Dry run complete (no files written)")
			return nil
		}
		fmt.Fprintf(out, "✓ Run %s written to %s\n", sum.RunID, outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanEntry, "entry", "", "entry table path (.csv, .tsv, .xlsx; default from config)")
	cleanCmd.Flags().StringVar(&cleanBBox, "bbox", "", "bounding-box table path (default from config)")
	cleanCmd.Flags().StringVarP(&cleanOutputDir, "output", "o", "", "output directory (default <runs_dir>/<run-id>)")
	cleanCmd.Flags().StringVar(&cleanDelimiter, "delimiter", "", "CSV delimiter override: ',' | ';' | 'tab' | 'pipe'")
	cleanCmd.Flags().StringVar(&cleanSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "clean and summarize without writing files")
	cleanCmd.Flags().StringVar(&cleanReportFormat, "report-format", "table", "summary printed to stdout: table|markdown|yaml|json")
	cleanCmd.Flags().BoolVarP(&cleanQuiet, "quiet", "q", false, "print nothing on success")
}
