package utils

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"touchline_server/models"
)

// Claims is the identity token issued by the auth service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 identity tokens.
type TokenVerifier struct {
	Secret []byte
}

// CreateToken signs a token for userID with role, valid for ttl.
func (v TokenVerifier) CreateToken(userID string, role models.Party, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.Secret)
}

// Verify parses tokenStr and resolves the acting party it names.
func (v TokenVerifier) Verify(tokenStr string) (models.ActingParty, error) {
	if len(v.Secret) == 0 {
		return models.ActingParty{}, errors.New("token secret not configured")
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.ActingParty{}, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return models.ActingParty{}, errors.New("invalid token")
	}

	party := models.ActingParty{UserID: c.Subject, Role: models.Party(c.Role)}
	if party.UserID == "" {
		return models.ActingParty{}, errors.New("token has no subject")
	}
	if !party.Role.Valid() {
		return models.ActingParty{}, fmt.Errorf("token has unknown role %q", c.Role)
	}
	return party, nil
}
