package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/jobtracker/internal/config"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/repository/dynamo"
	"github.com/ignite/jobtracker/internal/repository/memory"
	"github.com/ignite/jobtracker/internal/repository/postgres"
	"github.com/ignite/jobtracker/internal/repository/redisstore"
	"github.com/ignite/jobtracker/internal/service/application"
)

// openStore connects the configured backend. The returned close function is
// always safe to call. A nil store with a nil error means no store was
// requested.
func openStore(ctx context.Context, cfg config.StoreConfig) (application.Store, func(), error) {
	noop := func() {}
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	switch cfg.Type {
	case config.StoreNone:
		return nil, noop, nil

	case config.StoreMemory:
		logger.Warn("using the in-memory store; data is lost on restart")
		return memory.New(cfg.Collection), noop, nil

	case config.StoreDynamoDB:
		s, err := dynamo.New(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.StorePostgres:
		logger.Info("connecting to postgres", "host", extractHost(cfg.Postgres.URL))
		repo, err := postgres.Open(ctx, cfg.Postgres.URL, cfg.Collection)
		if err != nil {
			return nil, noop, err
		}
		return repo, func() { repo.Close() }, nil

	case config.StoreRedis:
		s, client, err := redisstore.Open(ctx, cfg.Redis.URL, cfg.Collection)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { client.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown store type %q", cfg.Type)
}

// extractHost pulls host:port out of a postgres URL without the credentials.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
