package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/dbpool"
)

// ChangeChannel is the NOTIFY channel stores publish issue changes on.
const ChangeChannel = "issue_changes"

// Event types emitted by the bridge itself rather than by a store.
const (
	EventChanged = "issue.changed"
	EventResync  = "feed.resync"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	pollInterval   = 2 * time.Minute
)

// Broadcaster fans change events out to connected clients.
type Broadcaster interface {
	BroadcastEvent(eventType string, issueIDs []int64, data json.RawMessage)
}

// ChangePayload is the JSON body of an issue_changes notification.
type ChangePayload struct {
	Event    string  `json:"event"`
	IssueIDs []int64 `json:"issue_ids"`
}

// NotifyBridge relays committed issue changes from PostgreSQL NOTIFY to the
// WebSocket hub. Notifications sent while the bridge is reconnecting are
// lost, so every successful re-subscribe is announced to clients as a
// resync event.
type NotifyBridge struct {
	log  *logrus.Logger
	pool *dbpool.Pool
	hub  Broadcaster
}

// NewNotifyBridge creates a NotifyBridge wired to the given pool and hub.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{log: log, pool: pool, hub: hub}
}

// Start checks the database is reachable and then listens in the background
// until ctx is cancelled.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.run(ctx)

	return nil
}

func (b *NotifyBridge) run(ctx context.Context) {
	backoff := initialBackoff

	for attempt := 0; ; attempt++ {
		subscribed, err := b.session(ctx, attempt > 0)
		if ctx.Err() != nil {
			return
		}

		if subscribed {
			backoff = initialBackoff
		}

		b.log.WithError(err).WithField("retry_in", backoff).Warn("notify bridge disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = jittered(min(backoff*2, maxBackoff))
	}
}

// session holds one pooled connection subscribed to ChangeChannel and
// dispatches notifications until the connection fails. subscribed reports
// whether LISTEN succeeded.
func (b *NotifyBridge) session(ctx context.Context, resumed bool) (subscribed bool, err error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return false, fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}

	b.log.WithField("channel", ChangeChannel).Info("notify bridge listening")

	if resumed {
		b.hub.BroadcastEvent(EventResync, nil, nil)
	}

	pg := conn.Conn()

	for {
		// A read deadline wakes the wait periodically so a dead socket is noticed.
		if err := pg.PgConn().Conn().SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return true, fmt.Errorf("setting read deadline: %w", err)
		}

		n, err := pg.WaitForNotification(ctx)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
				continue
			}

			return true, fmt.Errorf("waiting for notification: %w", err)
		}

		b.dispatch(n.Payload)
	}
}

// dispatch decodes one notification payload and broadcasts it.
func (b *NotifyBridge) dispatch(raw string) {
	var payload ChangePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || len(payload.IssueIDs) == 0 {
		b.log.WithField("payload_size", len(raw)).Warn("dropping notification without issue_ids")

		return
	}

	event := payload.Event
	if event == "" {
		event = EventChanged
	}

	b.log.WithFields(logrus.Fields{
		"event":  event,
		"issues": len(payload.IssueIDs),
	}).Debug("issue change notification")

	b.hub.BroadcastEvent(event, payload.IssueIDs, json.RawMessage(raw))
}

// jittered spreads d by ±25% so reconnecting replicas do not align.
func jittered(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.75 + rand.Float64()*0.5)) //nolint:gosec // jitter needs no crypto rand.
}
