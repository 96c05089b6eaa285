package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"

	"trendcast/internal/adapter/events"
	"trendcast/internal/adapter/storage"
	"trendcast/internal/config"
)

// backends holds the optional database and event bus connections
type backends struct {
	db            *pgxpool.Pool
	nats          *nats.Conn
	store         *storage.TrendStore
	publisher     *events.Publisher
	eventsSubject string
}

// connectBackends opens whatever the configuration enables
func connectBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{
		eventsSubject: events.CompletedSubject(cfg.NATS.EventsTopic),
	}

	if cfg.Database.Enabled() {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		b.db = db
		b.store = storage.NewTrendStore(db)
		if err := b.store.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
	} else {
		logger.Info("database not configured, runs are not archived")
	}

	if cfg.NATS.Enabled() {
		nc, err := initNATS(cfg.NATS, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		b.nats = nc
		b.publisher = events.NewPublisher(nc, cfg.NATS.EventsTopic)
	} else {
		logger.Info("NATS not configured, run events are not published")
	}

	return b, nil
}

// Close releases every open connection
func (b *backends) Close() {
	if b.nats != nil {
		b.nats.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
