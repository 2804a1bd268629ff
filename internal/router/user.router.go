package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"connecta/internal/handler"
	"connecta/internal/middleware"
	"connecta/pkg/jwtutil"
)

// SetupUserRoutes wires the social graph endpoints. Everything requires a
// valid token; the requester is always taken from the token, never from the
// body.
func SetupUserRoutes(r chi.Router, h *handler.RelationshipHandler, issuer *jwtutil.Issuer) chi.Router {
	r.Use(cors.Handler(corsOptions()))

	r.Route("/users", func(u chi.Router) {
		u.Use(middleware.RequireAuth(issuer))

		u.Post("/follow/{id}", h.Follow)
		u.Put("/unfollow/{id}", h.Unfollow)
		u.Put("/confirm-follow/{id}", h.ConfirmFollow)
		u.Delete("/remove-request/{id}", h.RemoveRequest)
		u.Get("/follow-requests/{id}", h.FollowRequests)
		u.Get("/followers/{id}", h.Followers)
		u.Get("/following/{id}", h.Following)

		u.Put("/block", h.Block)
		u.Put("/unblock", h.Unblock)
		u.Get("/{id}/visible", h.Visible)

		u.Post("/report", h.Report)
		u.Get("/reported", h.Reported)
	})

	return r
}
