package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldz/fieldz_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the application database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ReadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Println("Initializing database...")
			if err := database.InitializeDatabase(cfg); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("Database initialized successfully.")
			return nil
		},
	}

	return cmd
}
