/*
Package chat is the WebSocket transport of the relay.

This file defines Sessions, the table of live Clients keyed by connection id. It implements
relay.Transport: the hub hands it encoded frames and it queues them on the right client
without ever blocking.
*/
package chat

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

// Sessions tracks every live Client of the process.
type Sessions struct {
	// clients stores all live Client instances, keyed by connection id.
	clients map[string]*Client

	// mu protects clients and the send channels of its members: a channel is only
	// closed under the write lock and only written to under the read lock.
	mu sync.RWMutex

	// structured logger with Sessions context.
	logger zerolog.Logger
}

// NewSessions constructs and returns an empty Sessions table.
func NewSessions() *Sessions {
	return &Sessions{
		clients: make(map[string]*Client),
		logger:  logx.Component("sessions"),
	}
}

// Add makes client reachable for deliveries.
func (s *Sessions) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.clients[client.id]; ok && old != client {
		close(old.send)
	}
	s.clients[client.id] = client
}

// Remove detaches the client and closes its queue, which ends its WritePump.
// It reports whether the id was present.
func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return false
	}

	delete(s.clients, id)
	close(client.send)
	return true
}

// Deliver queues frame for connectionID. A missing client or a full queue drops the
// frame and returns an ErrDeliveryFailure error.
func (s *Sessions) Deliver(connectionID string, frame []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[connectionID]
	if !ok {
		return errs.NewError(errs.ErrDeliveryFailure, "connection closed")
	}

	select {
	case client.send <- frame:
		return nil
	default:
		return errs.NewError(errs.ErrDeliveryFailure, fmt.Sprintf("send queue full (%d)", cap(client.send)))
	}
}

// Count returns the number of live clients.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// CloseAll closes every client's queue. Each WritePump sends a close frame and
// tears down its socket, which in turn ends the matching ReadPump.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().Int("sessions", len(s.clients)).Msg("Closing all sessions...")

	for id, client := range s.clients {
		close(client.send)
		delete(s.clients, id)
	}

	s.logger.Info().Msg("All sessions closed.")
}
