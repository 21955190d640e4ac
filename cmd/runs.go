package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medclean-cli/internal/runs"
)

var runsShowFormat string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or inspect recorded cleaning runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := runsDir()
		if err != nil {
			return err
		}
		all, err := runs.List(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.Header("ID", "Created", "Entry Final", "BBox Final", "Output")
		for _, r := range all {
			entry, bbox := "-", "-"
			if s := r.Summary; s != nil {
				if s.Entry != nil {
					entry = strconv.Itoa(s.Entry.Final)
				}
				if s.BBox != nil {
					bbox = strconv.Itoa(s.BBox.Final)
				}
			}
			if err := table.Append([]string{r.ID, r.CreatedAt.Local().Format(time.DateTime), entry, bbox, r.OutputDir}); err != nil {
				return fmt.Errorf("append run row: %w", err)
			}
		}
		return table.Render()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the summary of a run (id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := runsDir()
		if err != nil {
			return err
		}
		r, err := runs.Find(dir, args[0])
		if err != nil {
			return err
		}
		if r.Summary == nil {
			return fmt.Errorf("run %s has no summary", r.ID)
		}
		b, err := r.Summary.Render(runsShowFormat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run: %s\nOutput: %s\n\n", r.ID, r.OutputDir)
		_, err = out.Write(b)
		return err
	},
}

func runsDir() (string, error) {
	c, err := requireConfig()
	if err != nil {
		return "", err
	}
	return expandHome(c.RunsDir)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsShowCmd.Flags().StringVar(&runsShowFormat, "format", "markdown", "output format: table|markdown|yaml|json")
}
