package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldz/fieldz_backend/internal/repo"
	"github.com/fieldz/fieldz_backend/pkg/database"
	"github.com/fieldz/fieldz_backend/pkg/util/password"
)

// NewSeedUserCommand creates an account directly in the database. It is the
// only way to create admins.
func NewSeedUserCommand() *cobra.Command {
	var (
		email    string
		pass     string
		fullName string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create a user account (admin, club or player)",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case repo.RoleAdmin, repo.RoleClub, repo.RolePlayer:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if pass == "" {
				pass = password.Generate(16)
				fmt.Printf("Generated password: %s\n", pass)
			}

			cfg, err := ReadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := database.NewEntClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer client.Close()

			hash, err := password.NewHasher(password.FromCentralConfig(cfg.Password)).Hash(pass)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			u, err := client.User.Create(context.Background(), &repo.User{
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hash,
				FullName:     fullName,
				Role:         role,
			})
			if err != nil {
				if repo.IsConstraintError(err) {
					return fmt.Errorf("an account with email %q already exists", email)
				}
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("Created %s account %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&pass, "password", "", "account password (generated when empty)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", repo.RoleAdmin, "account role: admin, club or player")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
