package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/fieldz/fieldz_backend/cmd/http"
	slotscmd "github.com/fieldz/fieldz_backend/cmd/slots"
	systemcmd "github.com/fieldz/fieldz_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "fieldz",
	Short: "FIELDZ sports facility reservation backend.",
	Long: `FIELDZ lets clubs publish bookable slots for their facilities and players
reserve them. This binary runs the HTTP API and the maintenance tooling.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(slotscmd.NewSlotsCommand())
}
