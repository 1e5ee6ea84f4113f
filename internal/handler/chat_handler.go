/*
Package handler provides HTTP handler functions for read-only views of chat presence and groups.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/randx"
	"minsky/internal/pkg/resp"
)

// HandleListUsers returns the roster of online users, oldest first.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := deps.Hub.Presence().ListOnline()

		users := make([]user.Public, 0, len(records))
		for _, rec := range records {
			users = append(users, rec.Public())
		}

		resp.RespondList(w, r, "users", users)
	}
}

// HandleGetUser returns one online user's profile.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		rec, ok := deps.Hub.Presence().Get(username)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user":     rec.Public(),
			"joinedAt": rec.JoinedAt,
		})
	}
}

// HandleListGroups returns every known group with its member count.
func HandleListGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondList(w, r, "groups", deps.Hub.Groups().Groups())
	}
}

// HandleGroupMembers returns the online members of one group.
func HandleGroupMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !randx.IsValidGroupName(name) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidName))
			return
		}

		members := make([]string, 0)
		for _, m := range deps.Hub.Groups().MembersOf(name) {
			if deps.Hub.Presence().Has(m) {
				members = append(members, m)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"name":    name,
			"members": members,
		})
	}
}
