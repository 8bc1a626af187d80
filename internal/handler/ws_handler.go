/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, validating
the entry room, upgrading the HTTP connection to WebSocket, and initiating the client lifecycle.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"roomrelay/internal/app/chat"
	"roomrelay/internal/app/relay"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/randx"
	"roomrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The optional {room} URL parameter becomes the connection's entry room.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if deps.ConnectLimiter != nil && !deps.ConnectLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "remote_ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		entryRoom := chi.URLParam(r, "room")
		if entryRoom != "" && !relay.ValidRoomID(entryRoom) {
			logx.Warn("WebSocket request rejected: Invalid room id.", "room_id", entryRoom)
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomIDInvalid))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connectionID := randx.ConnectionID()

		client := chat.NewClient(connectionID, conn, deps.Sessions, deps.Hub, chat.ClientConfig{
			EntryRoom:       entryRoom,
			QueueSize:       deps.Config.SendQueueSize,
			MaxContentBytes: deps.Config.MaxContentBytes,
			MessageRate:     deps.Config.MessageRate,
			MessageBurst:    deps.Config.MessageBurst,
		})

		// reachable for deliveries before the hub can name it as a recipient
		deps.Sessions.Add(client)

		if !deps.Hub.Connect(connectionID) {
			logx.Warn("WebSocket connection dropped: hub is shutting down.", "connection_id", connectionID)
			deps.Sessions.Remove(connectionID)
			_ = conn.Close()
			return
		}

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "connection_id", connectionID, "entry_room", entryRoom)

		client.ReadPump()
	}
}
