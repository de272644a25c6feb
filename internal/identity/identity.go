package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prakharpks02/floww-wall/internal/entity"
)

var (
	// ErrMissingSessionToken indicates that no session token was supplied.
	ErrMissingSessionToken = errors.New("identity: session token required")
	// ErrInvalidSessionToken indicates that the session token could not be parsed.
	ErrInvalidSessionToken = errors.New("identity: invalid session token")
	// ErrMissingUserID indicates that the token claims carried no usable identifier.
	ErrMissingUserID = errors.New("identity: user id required")
)

// Profile is the acting user's denormalized identity. It backs the
// normalization fallback for self-authored entities and scopes the reaction
// ledger to one signed-in user.
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Title       string
}

// Validate reports whether the profile carries the minimum identity fields.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingUserID
	}
	return nil
}

// AsAuthor converts the profile into the entity author snapshot.
func (p Profile) AsAuthor() entity.Author {
	return entity.Author{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Title:       p.Title,
	}
}

// sessionClaims mirrors the JWT payload issued by the session service.
type sessionClaims struct {
	UserID          string `json:"user_id"`
	UserDisplayName string `json:"user_display_name"`
	UserAvatarURL   string `json:"user_avatar_url"`
	UserTitle       string `json:"user_title"`
	jwt.RegisteredClaims
}

// FromSessionToken extracts the acting user's profile from a session JWT.
// The token's signature is not checked here: verification belongs to the
// session bootstrap flow, and this engine only needs the identity claims the
// flow already accepted.
func FromSessionToken(tokenString string) (Profile, error) {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return Profile{}, ErrMissingSessionToken
	}

	claims := &sessionClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(trimmed, claims); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		userID = strings.TrimSpace(claims.Subject)
	}
	if userID == "" {
		return Profile{}, ErrMissingUserID
	}

	return Profile{
		ID:          userID,
		DisplayName: claims.UserDisplayName,
		AvatarURL:   claims.UserAvatarURL,
		Title:       claims.UserTitle,
	}, nil
}
