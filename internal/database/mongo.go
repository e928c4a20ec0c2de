package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/config"
)

// MongoPool owns the single MongoDB client shared by every repository. The
// driver pools connections internally. Repositories acquire database handles
// through Database and the pool is released once with Close.
type MongoPool struct {
	client *mongo.Client
}

// OpenMongo creates the client and pings it, retrying with exponential backoff
// up to cfg.ConnectRetries times. When the server stays unreachable the pool
// is still returned: the driver reconnects lazily and operations fail with a
// store-unavailable error until it does.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*MongoPool, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetTimeout(cfg.OperationTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	pool := &MongoPool{client: client}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			log.Info("mongo connected", zap.Int("attempt", attempt))
			return pool, nil
		}
		if attempt >= retries {
			log.Warn("mongo unreachable, continuing without a live connection",
				zap.Int("attempts", attempt), zap.Error(err))
			return pool, nil
		}
		log.Warn("mongo ping failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.Background())
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// Database returns a handle on the named database.
func (p *MongoPool) Database(name string) *mongo.Database {
	return p.client.Database(name)
}

// Ping checks that a server is reachable.
func (p *MongoPool) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.client.Ping(pingCtx, nil)
}

// Close disconnects the client and releases its connections.
func (p *MongoPool) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.client.Disconnect(ctx)
}
