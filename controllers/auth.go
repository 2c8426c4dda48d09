package controllers

import (
	"context"
	"net/http"
	"strings"

	"touchline_server/models"
)

type contextKey string

const actingPartyKey contextKey = "actingParty"

// TokenVerifier resolves a bearer token to the acting party.
type TokenVerifier interface {
	Verify(token string) (models.ActingParty, error)
}

// RequireIdentity rejects requests without a valid bearer token and stores
// the acting party in the request context.
func RequireIdentity(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token", Reason: "unauthenticated"})
				return
			}
			party, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token", Reason: "unauthenticated"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActingParty(r.Context(), party)))
		})
	}
}

// WithActingParty returns a copy of ctx carrying party.
func WithActingParty(ctx context.Context, party models.ActingParty) context.Context {
	return context.WithValue(ctx, actingPartyKey, party)
}

// ActingPartyFrom returns the party stored by RequireIdentity.
func ActingPartyFrom(ctx context.Context) (models.ActingParty, bool) {
	party, ok := ctx.Value(actingPartyKey).(models.ActingParty)
	return party, ok
}
