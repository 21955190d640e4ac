package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medclean-cli/internal/record"
	"github.com/KaramelBytes/medclean-cli/internal/tabular"
)

var (
	inspectDelimiter string
	inspectSheet     string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how medclean reads a source table before cleaning it",
	Long: `Inspect loads a CSV/TSV/XLSX source and prints its row count and, per column, the
canonical header name, the field it is recognized as, and how many cells are filled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := tabular.ParseDelimiter(inspectDelimiter)
		if err != nil {
			return err
		}
		tbl, err := tabular.ReadFile(args[0], tabular.Options{Delimiter: delim, Sheet: inspectSheet})
		if err != nil {
			return err
		}
		filled := make([]int, len(tbl.Header))
		for _, row := range tbl.Rows {
			for i := range tbl.Header {
				if i < len(row) && row[i] != "" {
					filled[i]++
				}
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File: %s\nRows: %d\nColumns: %d\n", tbl.Name, len(tbl.Rows), len(tbl.Header))
		table := tablewriter.NewWriter(out)
		table.Header("Column", "Canonical", "Field", "Filled")
		for i, h := range tbl.Header {
			field, ok := record.Resolve(h)
			if !ok {
				field = "(passthrough)"
			}
			if err := table.Append([]string{strconv.Quote(h), record.CanonicalKey(h), field, strconv.Itoa(filled[i])}); err != nil {
				return fmt.Errorf("append column row: %w", err)
			}
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", "", "CSV delimiter override: ',' | ';' | 'tab' | 'pipe'")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "XLSX sheet name (default first sheet)")
}
