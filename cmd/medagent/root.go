package main

import (
	"fmt"
	"os"

	"med-agent-be/internal/bootstrap"
	"med-agent-be/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medagent",
	Short: "Operator tools for the pharmacy and medication assistant",
	Long:  `medagent runs the assistant pipeline in-process: an interactive chat and catalog index maintenance.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("memory", false, "Keep sessions and the catalog index in memory")
}

// loadContainer builds the same container the REST server uses.
func loadContainer(cmd *cobra.Command) (*bootstrap.Container, *config.Config) {
	cfg := config.Load()
	if inMemory, _ := cmd.Flags().GetBool("memory"); inMemory {
		cfg.Session.Backend = "memory"
		cfg.Catalog.IndexBackend = "memory"
	}
	return bootstrap.NewContainer(bootstrap.OpenDatabase(cfg), cfg), cfg
}

func main() {
	Execute()
}
