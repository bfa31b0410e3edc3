// Package cmd wires shared infrastructure for the praxis binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/praxisflow/praxis/pkg/persistence"
	"github.com/praxisflow/praxis/pkg/persistence/file"
	"github.com/praxisflow/praxis/pkg/persistence/postgresql"
)

// NewPersistence builds a storage backend from a database URL. postgres://
// URLs get the PostgreSQL backend; anything else is treated as a filesystem
// root (optionally prefixed with file://).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
