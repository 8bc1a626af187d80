/*
Package handler provides HTTP handler functions for read-only room introspection.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomrelay/internal/app/relay"
	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/resp"
)

// HandleListRooms returns every non-empty room with its member count.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registry := deps.Hub.Registry()

		data := map[string]any{
			"rooms":       registry.Rooms(),
			"connections": registry.ConnectionCount(),
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleRoomMembers returns the members of a single room.
func HandleRoomMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "room")
		if !relay.ValidRoomID(roomID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomIDInvalid))
			return
		}

		members := deps.Hub.Registry().Members(roomID)
		if len(members) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		data := map[string]any{
			"id":      roomID,
			"members": members,
		}
		resp.RespondSuccess(w, r, data)
	}
}
