package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/audit"
	"github.com/gyeh/claimengine/internal/db"
	"github.com/gyeh/claimengine/internal/engine"
	"github.com/gyeh/claimengine/internal/exitcode"
	"github.com/gyeh/claimengine/internal/refdata"
	"github.com/gyeh/claimengine/internal/refdata/memstore"
	"github.com/gyeh/claimengine/internal/refdata/pgstore"
)

// backend is the reference source and audit sink an engine runs against.
type backend struct {
	source refdata.Source
	sink   audit.Sink
	pool   *pgxpool.Pool
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// openBackend picks the snapshot when --snapshot is set and Postgres
// otherwise. Decisions always go to the log; with a database they are also
// copied into audit.decision_events.
func openBackend(ctx context.Context, log zerolog.Logger) *backend {
	if err := cfg.ValidateSource(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	b := &backend{}
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN, int32(cfg.Workers+1))
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		b.pool = pool
	}

	if cfg.SnapshotPath != "" {
		store, err := memstore.Load(cfg.SnapshotPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to load reference snapshot")
			os.Exit(exitcode.ValidationError)
		}
		b.source = store
		log.Info().Str("snapshot", cfg.SnapshotPath).Msg("using reference snapshot")
	} else {
		b.source = pgstore.New(b.pool)
		log.Info().Msg("using postgres reference store")
	}

	b.sink = audit.NewLogSink(log)
	if b.pool != nil {
		b.sink = audit.Multi{b.sink, audit.NewPGSink(b.pool)}
	}
	return b
}

func (b *backend) engine(log zerolog.Logger) *engine.Engine {
	return engine.New(b.source, log, b.sink, cfg.EngineOptions())
}
