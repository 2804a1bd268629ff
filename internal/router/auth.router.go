package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"connecta/internal/handler"
	"connecta/internal/middleware"
	"connecta/pkg/jwtutil"
)

func corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// SetupAuthRoutes wires the account lifecycle, login and OTP endpoints.
func SetupAuthRoutes(r chi.Router, h *handler.AuthHandler, issuer *jwtutil.Issuer, uploadDir string) chi.Router {
	r.Use(cors.Handler(corsOptions()))

	r.Get("/health", h.Health)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	r.Route("/users", func(u chi.Router) {
		u.Post("/", h.CreateUser)
		u.Post("/login", h.Login)
		u.Post("/send-otp", h.SendOTP)
		u.Post("/verify-otp", h.VerifyOTP)
		u.Post("/reset-password", h.ResetPassword)
		u.Post("/forget-password", h.SendOTP)

		u.Group(func(p chi.Router) {
			p.Use(middleware.RequireAuth(issuer))
			p.Get("/", h.ListUsers)
			p.Get("/{id}", h.GetUser)
			p.Put("/{id}", h.UpdateUser)
			p.Delete("/{id}", h.DeleteUser)
			p.Put("/{id}/password", h.ChangePassword)
			p.Put("/{id}/active", h.SetActive)
		})
	})

	r.Route("/admins", func(a chi.Router) {
		a.Post("/", h.CreateAdmin)
		a.Post("/login", h.Login)

		a.Group(func(p chi.Router) {
			p.Use(middleware.RequireAuth(issuer))
			p.Get("/", h.ListAdmins)
			p.Put("/block/{id}", h.BlockGlobally)
			p.Put("/unblock/{id}", h.UnblockGlobally)
		})
	})

	return r
}
