package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"touchline_server/services"
)

// ChatController struct
type ChatController struct {
	ChatService *services.ChatService
	Logger      *zap.Logger
}

// NewChatController initializes the chat controller
func NewChatController(service *services.ChatService, logger *zap.Logger) *ChatController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatController{ChatService: service, Logger: logger}
}

// GetMessages fetches the latest messages of a conversation, oldest first.
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	party, ok := ActingPartyFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing identity", Reason: "unauthenticated"})
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := c.ChatService.ListMessages(r.Context(), mux.Vars(r)["conversationId"], party.UserID, limit)
	if err != nil {
		c.Logger.Debug("failed to fetch messages", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// CreateMessage posts a message from the acting party.
func (c *ChatController) CreateMessage(w http.ResponseWriter, r *http.Request) {
	party, ok := ActingPartyFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing identity", Reason: "unauthenticated"})
		return
	}

	var request struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	message, err := c.ChatService.PostMessage(r.Context(), mux.Vars(r)["conversationId"], party.UserID, request.Content)
	if err != nil {
		c.Logger.Debug("failed to post message", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}
