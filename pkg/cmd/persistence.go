package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/driftlabs/cascade/pkg/persistence/file"
	"github.com/driftlabs/cascade/pkg/persistence/postgresql"
)

// NewPersistence selects a backend from the database URL scheme. Anything
// that is not postgres falls back to the file store, which only needs a
// directory path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
