package handler

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes вешает эндпоинты аутентификации на router (обычно под /api/auth)
func RegisterRoutes(router chi.Router, authenticationHandler *AuthenticationHandler) {
	router.Group(func(r chi.Router) {
		r.Post("/register", authenticationHandler.Register)
		r.Post("/login", authenticationHandler.Login)
		r.Post("/refresh", authenticationHandler.Refresh)
		r.Post("/logout", authenticationHandler.Logout)
	})
	router.Group(func(r chi.Router) {
		r.Use(authenticationHandler.RequireAccount)
		r.Get("/me", authenticationHandler.Me)
	})
}
