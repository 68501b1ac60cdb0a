package buddy

import (
	"github.com/gorilla/mux"

	"github.com/joeumn/workouttracker/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/buddies").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Discovery
	api.HandleFunc("/discover", handler.Discover).Methods("GET")

	// Likes and connections
	api.HandleFunc("/likes", handler.SendLike).Methods("POST")
	api.HandleFunc("/connections", handler.GetConnections).Methods("GET")

	// Blocks
	api.HandleFunc("/blocks", handler.BlockUser).Methods("POST")

	// Preferences
	api.HandleFunc("/preferences", handler.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", handler.UpsertPreferences).Methods("PUT")
}
