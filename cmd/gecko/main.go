// Command gecko validates hierarchical device configuration text against
// a catalog of rules.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

var (
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "gecko",
	Short:   "Validate device configuration text against a rule catalog",
	Version: fmt.Sprintf("%s (commit: %s)", version, gitCommit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to gecko config file (YAML)")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}
