package routes

import (
	"touchline_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes registers the match lifecycle routes under `/api`.
// Every route requires a bearer identity.
func RegisterMatchRoutes(r *mux.Router, controller *controllers.MatchController, verifier controllers.TokenVerifier) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(controllers.RequireIdentity(verifier))

	apiRouter.HandleFunc("/conversations/{conversationId}/stage", controller.HandleAdvanceConversationStage).Methods("PATCH")

	matchRouter := apiRouter.PathPrefix("/matches").Subrouter()
	matchRouter.HandleFunc("", controller.HandleCreateMatch).Methods("POST")
	matchRouter.HandleFunc("", controller.HandleListMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.HandleGetMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/stage", controller.HandleAdvanceMatchStage).Methods("PATCH")
	matchRouter.HandleFunc("/{matchId}/confirm", controller.HandleConfirm).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/archive-url", controller.HandleArchiveURL).Methods("GET")
}
