package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/linkstats/internal/auth"
	"github.com/serroba/linkstats/internal/shortener"
	"go.uber.org/zap"
)

// TokenIssuer mints owner tokens.
type TokenIssuer interface {
	Issue() (string, shortener.OwnerID, error)
	TTL() time.Duration
}

// SessionHandler issues owner identities.
type SessionHandler struct {
	tokens TokenIssuer
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(tokens TokenIssuer, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{tokens: tokens, logger: logger}
}

func (h *SessionHandler) Create(_ context.Context, _ *struct{}) (*SessionResponse, error) {
	token, owner, err := h.tokens.Issue()
	if err != nil {
		return nil, toHTTPError(h.logger, err)
	}

	resp := &SessionResponse{}
	resp.SetCookie = http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	resp.Body.OwnerID = string(owner)
	resp.Body.Token = token

	return resp, nil
}
