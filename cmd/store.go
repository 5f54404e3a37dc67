package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credenciados/internal/provider"
	"github.com/sells-group/credenciados/internal/resilience"
)

// initStore opens the configured backend. Postgres connects are retried
// when the failure looks transient.
func initStore(ctx context.Context) (provider.Backend, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "credenciados.db"
		}
		st, err := provider.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		retry := resilience.FromConnectConfig(cfg.Store.ConnectAttempts, 0, "postgres")
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (provider.Backend, error) {
			st, err := provider.NewPostgres(ctx, cfg.Store.DatabaseURL, &provider.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return st, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore validates the config for mode, opens the backend and applies
// the schema.
func openStore(ctx context.Context, mode string) (provider.Backend, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
