package http

import (
	"github.com/spf13/cobra"

	"github.com/fieldz/fieldz_backend/config"
)

func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the FIELDZ REST API",
		Long: `Run the FIELDZ REST API: accounts, facilities, slot management and the
recurring slot generator under /api/v1, plus health checks and /metrics.`,
	}

	cmd.PersistentFlags().Int("port", 0, "Listen on this port instead of server.port")

	cmd.AddCommand(NewStartCommand())

	return cmd
}

// applyOverrides copies flags set on the command line over cfg.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	return nil
}
