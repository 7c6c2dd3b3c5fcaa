package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
)

type contextKey string

// authUserKey carries the authenticated user's login through the request context.
const authUserKey contextKey = "auth_user"

// requireAuth accepts Basic credentials verified against the user store, or a
// Bearer token issued by the token endpoint. Any failure, including a missing
// or malformed Authorization header, is reported as 403 with the rest_forbidden
// shape rather than 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		switch {
		case strings.HasPrefix(header, "Basic "):
			login, password, ok := decodeBasic(header)
			if !ok {
				writeForbidden(w, r)
				return
			}
			user, err := h.users.Authenticate(r.Context(), login, password)
			if err != nil {
				writeForbidden(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), authUserKey, user.Login)
			next.ServeHTTP(w, r.WithContext(ctx))

		case strings.HasPrefix(header, "Bearer "):
			if h.tokenAuth == nil {
				writeForbidden(w, r)
				return
			}
			token, err := jwtauth.VerifyRequest(h.tokenAuth, r, jwtauth.TokenFromHeader)
			if err != nil {
				writeForbidden(w, r)
				return
			}
			login, _ := token.Get("login")
			ctx := context.WithValue(r.Context(), authUserKey, login)
			next.ServeHTTP(w, r.WithContext(ctx))

		default:
			writeForbidden(w, r)
		}
	})
}

func decodeBasic(header string) (login, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return "", "", false
	}
	login, password, found := strings.Cut(string(raw), ":")
	if !found || login == "" {
		return "", "", false
	}
	return login, password, true
}

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken exchanges Basic credentials for a signed bearer token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenAuth == nil {
		writeError(w, r, http.StatusNotImplemented, "tokens_disabled",
			"Token authentication is not configured.")
		return
	}

	login, password, ok := decodeBasic(r.Header.Get("Authorization"))
	if !ok {
		writeForbidden(w, r)
		return
	}

	user, err := h.users.Authenticate(r.Context(), login, password)
	if err != nil {
		writeForbidden(w, r)
		return
	}

	expiresAt := time.Now().Add(h.tokenTTL)
	claims := map[string]interface{}{
		"sub":   user.ID.String(),
		"login": user.Login,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := h.tokenAuth.Encode(claims)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token encode failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error",
			"Could not issue token.")
		return
	}

	render.JSON(w, r, TokenResponse{Token: tokenString, ExpiresAt: expiresAt})
}
