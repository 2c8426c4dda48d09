package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"touchline_server/models"
	"touchline_server/services"
)

// MatchController serves the match lifecycle endpoints.
type MatchController struct {
	MatchService        *services.MatchService
	ConversationService *services.ConversationService
	ArchiveService      *services.ArchiveService
	Logger              *zap.Logger
}

// NewMatchController initializes the controller
func NewMatchController(matches *services.MatchService, conversations *services.ConversationService, archive *services.ArchiveService, logger *zap.Logger) *MatchController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchController{
		MatchService:        matches,
		ConversationService: conversations,
		ArchiveService:      archive,
		Logger:              logger,
	}
}

type stageRequest struct {
	MatchProgressStage models.Stage `json:"matchProgressStage"`
}

type stageResponse struct {
	ConversationID     string        `json:"conversationId"`
	MatchID            string        `json:"matchId"`
	MatchProgressStage models.Stage  `json:"matchProgressStage"`
	Match              *models.Match `json:"match"`
}

type confirmRequest struct {
	Confirmed *bool `json:"confirmed"`
}

type confirmResponse struct {
	Match        *models.Match `json:"match"`
	AllConfirmed bool          `json:"allConfirmed"`
}

func (c *MatchController) actor(w http.ResponseWriter, r *http.Request) (models.ActingParty, bool) {
	party, ok := ActingPartyFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing identity", Reason: "unauthenticated"})
	}
	return party, ok
}

func (c *MatchController) logFailure(r *http.Request, err error) {
	if services.ErrorReason(err) == "store_unavailable" || services.ErrorReason(err) == "internal" {
		c.Logger.Error("match request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// fail writes the error of a match lookup or mutation.
func (c *MatchController) fail(w http.ResponseWriter, r *http.Request, err error) {
	c.logFailure(r, err)
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "this match no longer exists", Reason: services.ErrorReason(err)})
		return
	}
	writeError(w, err)
}

// HandleAdvanceConversationStage advances or declines the match bound to a
// conversation.
func (c *MatchController) HandleAdvanceConversationStage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	matchID, err := c.ConversationService.MatchIDFor(r.Context(), conversationID)
	if err != nil {
		c.logFailure(r, err)
		writeError(w, err)
		return
	}
	c.advanceStage(w, r, matchID)
}

// HandleAdvanceMatchStage advances or declines a match by id.
func (c *MatchController) HandleAdvanceMatchStage(w http.ResponseWriter, r *http.Request) {
	c.advanceStage(w, r, mux.Vars(r)["matchId"])
}

func (c *MatchController) advanceStage(w http.ResponseWriter, r *http.Request, matchID string) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}

	var request stageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if request.MatchProgressStage == "" {
		writeBadRequest(w, "matchProgressStage is required")
		return
	}

	match, err := c.MatchService.ApplyStageTransition(r.Context(), matchID, request.MatchProgressStage, party)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stageResponse{
		ConversationID:     match.ConversationID,
		MatchID:            match.MatchID,
		MatchProgressStage: match.Stage,
		Match:              match,
	})
}

// HandleConfirm records a confirm or decline from the acting party.
func (c *MatchController) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}

	var request confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if request.Confirmed == nil {
		writeBadRequest(w, "confirmed is required")
		return
	}

	result, err := c.MatchService.ApplyConfirmation(r.Context(), mux.Vars(r)["matchId"], party, *request.Confirmed)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{Match: result.Match, AllConfirmed: result.AllConfirmed})
}

// HandleGetMatch returns a match to one of its participants.
func (c *MatchController) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}
	match, err := c.MatchService.Get(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if !match.IsParticipant(party.UserID) {
		writeError(w, services.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// HandleListMatches lists the acting party's matches for a dashboard. The
// partyId and role query parameters default to the acting party and may
// only name the acting party.
func (c *MatchController) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}
	partyID := r.URL.Query().Get("partyId")
	if partyID == "" {
		partyID = party.UserID
	}
	role := models.Party(r.URL.Query().Get("role"))
	if role == "" {
		role = party.Role
	}
	if partyID != party.UserID || role != party.Role {
		writeError(w, services.ErrUnauthorized)
		return
	}

	matches, err := c.MatchService.ListForParty(r.Context(), partyID, role)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// HandleCreateMatch opens a match when a counterparty expresses interest in
// a posting.
func (c *MatchController) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}

	var request services.NewMatch
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	match, err := c.MatchService.Create(r.Context(), party, request)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

// HandleArchiveURL returns a presigned URL for a finished match's snapshot.
func (c *MatchController) HandleArchiveURL(w http.ResponseWriter, r *http.Request) {
	party, ok := c.actor(w, r)
	if !ok {
		return
	}
	if c.ArchiveService == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "match archive is not configured", Reason: "not_found"})
		return
	}

	match, err := c.MatchService.Get(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if !match.IsParticipant(party.UserID) {
		writeError(w, services.ErrUnauthorized)
		return
	}
	if !match.Stage.Terminal() {
		writeJSON(w, http.StatusConflict, errorBody{Error: "match is not finished", Reason: "not_archived"})
		return
	}

	url, err := c.ArchiveService.GenerateReadURL(r.Context(), match.MatchID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
