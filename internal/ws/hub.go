// Package ws implements WebSocket hub and client management for the live
// issue change feed.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// maxClients caps concurrent WebSocket connections.
const maxClients = 1000

// issueBroadcast is sent through the broadcast channel to the Run goroutine.
type issueBroadcast struct {
	issueIDs []int64
	msg      []byte
}

// Hub manages active WebSocket clients and broadcasts messages.
// All client map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan issueBroadcast
	shutdown   chan struct{} // signals Run to begin graceful drain
	done       chan struct{} // closed when Run has finished draining
	count      atomic.Int64
	log        *logrus.Logger
	seq        *EventSequence
	buffer     *EventBuffer
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan issueBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		seq:        NewEventSequence(),
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.buffer.Stop()

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return

		case client := <-h.register:
			if len(h.clients) >= maxClients {
				h.log.Warn("connection limit reached, dropping client")
				client.closeSend()
				continue
			}
			h.clients[client] = true
			h.updateCount()
			h.log.WithField("total", len(h.clients)).Info("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.updateCount()
			h.log.WithField("total", len(h.clients)).Info("client unregistered")

		case b := <-h.broadcast:
			for client := range h.clients {
				if !client.wants(b.issueIDs) {
					continue
				}
				select {
				case client.send <- b.msg:
				default:
					// Slow consumer: drop it rather than block the loop.
					client.closeSend()
					delete(h.clients, client)
				}
			}
			h.updateCount()
		}
	}
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// maxBroadcastPayload is the maximum allowed notification payload size (8 KB).
const maxBroadcastPayload = 8192

// broadcastToSubscribers queues msg for every client subscribed to any of issueIDs.
// Payloads exceeding maxBroadcastPayload are dropped with a warning log.
func (h *Hub) broadcastToSubscribers(issueIDs []int64, msg []byte) {
	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"payload_size": len(msg),
			"max_size":     maxBroadcastPayload,
		}).Warn("dropping oversized broadcast payload")
		return
	}
	select {
	case h.broadcast <- issueBroadcast{issueIDs: issueIDs, msg: msg}:
	default:
		h.log.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; client cleanup happened in Run shutdown.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastEvent assigns a sequence ID, stores the event for replay, and
// sends it to every client watching one of issueIDs.
func (h *Hub) BroadcastEvent(eventType string, issueIDs []int64, data json.RawMessage) {
	evt := Event{
		Type:     eventType,
		ID:       h.seq.Next(),
		IssueIDs: issueIDs,
		Data:     data,
		Time:     time.Now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	h.buffer.Append(&evt)
	h.broadcastToSubscribers(issueIDs, msg)
}

// Shutdown initiates a graceful WebSocket drain: sends a shutdown frame to
// every connected client, waits for their write pumps to flush, then closes
// all connections. It blocks until drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients sends a close frame to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	// Send shutdown notification so clients know to reconnect.
	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

	for !h.drained() {
		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")
			h.closeAll()

			return
		case <-ticker.C:
		}
	}

	h.closeAll()
}

func (h *Hub) drained() bool {
	for client := range h.clients {
		if len(client.send) > 0 {
			return false
		}
	}

	return true
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.updateCount()
}

// ReplayEvents sends buffered events since lastEventID that the client is
// subscribed to. Returns false if the requested ID is no longer buffered.
func (h *Hub) ReplayEvents(client *Client, lastEventID uint64) bool {
	oldest := h.buffer.OldestID()
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest {
		return false
	}

	for _, evt := range h.buffer.Since(lastEventID) {
		if !client.wants(evt.IssueIDs) {
			continue
		}

		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		select {
		case client.send <- msg:
		default:
			return true // channel full, stop replay
		}
	}
	return true
}
