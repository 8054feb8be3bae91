package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/crm"
	crmmemory "github.com/driftlabs/cascade/pkg/crm/memory"
	crmpostgres "github.com/driftlabs/cascade/pkg/crm/postgres"
	"github.com/driftlabs/cascade/pkg/notify"
	"github.com/driftlabs/cascade/pkg/persistence"
	"github.com/driftlabs/cascade/pkg/persistence/postgresql"
)

// NewCRMStore shares the PostgreSQL pool with persistence when available.
// The file backend has no CRM tables, so it pairs with the in-memory store.
func NewCRMStore(p persistence.Persistence, logger *slog.Logger) crm.Store {
	if pg, ok := p.(*postgresql.Persistence); ok {
		return crmpostgres.NewStore(pg.DB(), logger)
	}

	return crmmemory.NewStore()
}

func NewNotifier(ctx context.Context, redisURL string, logger *slog.Logger) notify.Notifier {
	if redisURL == "" {
		return notify.NewMemoryNotifier()
	}

	notifier, err := notify.NewRedisNotifierFromURL(ctx, redisURL, logger)
	if err != nil {
		panic(fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return notifier
}
