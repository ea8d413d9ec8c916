package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Rebuild the medication catalog index from the CSV dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, cfg := loadContainer(cmd)
		defer container.Close()

		color.Cyan("Embedding %s ...", cfg.Catalog.DatasetPath)
		start := time.Now()
		if err := container.Catalog.Rebuild(cmd.Context()); err != nil {
			color.Red("Rebuild failed: %v", err)
			return err
		}
		color.Green("✅ Catalog index rebuilt in %v", time.Since(start).Round(time.Second))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
