package config

import (
	"context"
	"strings"

	"github.com/cognicore/triage/pkg/triage/store"
	"github.com/cognicore/triage/pkg/triage/store/postgres"
	"github.com/cognicore/triage/pkg/triage/store/sqlite"
)

// OpenStore opens the sink named by dest: postgres:// and postgresql://
// URLs go to PostgreSQL, anything else is a SQLite file path.
func OpenStore(ctx context.Context, dest string) (store.Store, error) {
	if IsPostgresDSN(dest) {
		return postgres.OpenPostgres(ctx, dest)
	}
	return sqlite.OpenSQLite(ctx, dest)
}

// IsPostgresDSN reports whether dest is a PostgreSQL connection URL.
func IsPostgresDSN(dest string) bool {
	lower := strings.ToLower(dest)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}
