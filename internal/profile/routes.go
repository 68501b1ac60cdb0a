package profile

import (
	"github.com/gorilla/mux"

	"github.com/joeumn/workouttracker/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/users").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/me", handler.GetOwnProfile).Methods("GET")
	api.HandleFunc("/me", handler.UpdateProfile).Methods("PATCH")
	api.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods("GET")
}
