package routes

import (
	"touchline_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes registers conversation message routes
func RegisterChatRoutes(r *mux.Router, controller *controllers.ChatController, verifier controllers.TokenVerifier) {
	chatRouter := r.PathPrefix("/api/conversations/{conversationId}/messages").Subrouter()
	chatRouter.Use(controllers.RequireIdentity(verifier))

	chatRouter.HandleFunc("", controller.GetMessages).Methods("GET")
	chatRouter.HandleFunc("", controller.CreateMessage).Methods("POST")
}
