// Package store provides focused, single-concern data access stores
// for the issue tracker.
//
// Each store owns one table family (issues, users, labels, comments,
// reports) and embeds shared helpers (Pool, logger) via the Base struct.
// Stores never import each other; shared logic lives in this file
// or in helpers.go and scan.go.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}
