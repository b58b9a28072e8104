package authorize

import (
	"github.com/fieldz/fieldz_backend/config"
	"github.com/fieldz/fieldz_backend/pkg/database"
)

// PolicyStoreMemory keeps policies in process even on Postgres.
const PolicyStoreMemory = "memory"

// Config holds configuration for the authorization system
type Config struct {
	// DSN is the Postgres connection string policies are stored in. Empty
	// keeps them in memory.
	DSN string

	// PolicyPath optionally names a CSV file with policies loaded on top of
	// the seeded defaults. Only read by the in-memory enforcer.
	PolicyPath string

	// EnableAudit logs every authorization decision.
	EnableAudit bool
}

// FromCentralConfig picks the authorization settings out of the app config.
// Policies go to the application database when it is Postgres, unless
// authorization.policy_store is "memory".
func FromCentralConfig(c *config.Config) Config {
	out := Config{
		PolicyPath:  c.Authorization.PolicyPath,
		EnableAudit: c.Authorization.EnableAudit,
	}
	if c.Authorization.PolicyStore == PolicyStoreMemory {
		return out
	}
	if db := database.FromCentralConfig(c.Database); db.IsPostgres() {
		out.DSN = db.DSN()
	}
	return out
}
