package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/medclean-cli/internal/config"
	"github.com/KaramelBytes/medclean-cli/internal/utils"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter config.yaml (default ~/.medclean)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		} else {
			d, err := cfgpkg.Dir()
			if err != nil {
				return err
			}
			dir = d
		}
		path := filepath.Join(dir, "config.yaml")
		// Refuse to overwrite an existing config.
		if utils.FileExists(path) {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		c := cfgpkg.Default()
		c.RunsDir = filepath.Join(dir, "runs")
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Config initialized: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
