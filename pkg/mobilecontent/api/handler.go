// Package api exposes the content service over HTTP with the original wire
// contract: bulk submit, paginated fetch, fetch by author email.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

// Handler handles HTTP requests for mobile content using pkg/mobilecontent
type Handler struct {
	service   mobilecontent.Service
	users     mobilecontent.UserStore
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// HandlerOption configures the handler.
type HandlerOption func(*Handler)

// WithTokenAuth enables bearer-token auth and the token issuance endpoint.
func WithTokenAuth(ta *jwtauth.JWTAuth, ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.tokenAuth = ta
		h.tokenTTL = ttl
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a new handler
func NewHandler(service mobilecontent.Service, users mobilecontent.UserStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:  service,
		users:    users,
		tokenTTL: time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the routes for the content API. Mount under /custom/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/token", h.IssueToken)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/submit", h.SubmitPosts)
		r.Get("/fetch", h.FetchPosts)
		r.Get("/fetch-by-email/{email}", h.FetchPostsByEmail)
	})

	return r
}

// SubmitPosts accepts a batch of records, as a JSON array or as a bracketed
// form-encoded array, and returns one result per record in input order.
func (h *Handler) SubmitPosts(w http.ResponseWriter, r *http.Request) {
	records, ok := h.decodeSubmitRequest(w, r)
	if !ok {
		return
	}

	results := h.service.SubmitBatch(r.Context(), records)
	render.JSON(w, r, results)
}

// decodeSubmitRequest parses the submit payload. Responses for malformed
// payloads are written here; the boolean reports whether records are usable.
func (h *Handler) decodeSubmitRequest(w http.ResponseWriter, r *http.Request) ([]mobilecontent.SubmissionRecord, bool) {
	contentType := r.Header.Get("Content-Type")

	if hasJSONContentType(contentType) {
		var raw []json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeInvalidData(w, r)
			return nil, false
		}

		records := make([]mobilecontent.SubmissionRecord, 0, len(raw))
		for _, item := range raw {
			var rec mobilecontent.SubmissionRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				writeInvalidData(w, r)
				return nil, false
			}
			records = append(records, rec)
		}
		return records, true
	}

	// Form fallback: records arrive as 0[title]=..., 0[custom_fields][color]=...
	if err := r.ParseForm(); err != nil {
		writeInvalidData(w, r)
		return nil, false
	}
	records, err := parseFormRecords(r.PostForm)
	if err != nil {
		writeInvalidData(w, r)
		return nil, false
	}
	return records, true
}

func hasJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// FetchPosts returns one page of posts. Totals go out in the X-WP-Total and
// X-WP-TotalPages headers, which existing API consumers depend on.
func (h *Handler) FetchPosts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)

	result, err := h.service.ListPosts(r.Context(), page, perPage)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list posts failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error",
			"Posts could not be fetched.")
		return
	}

	w.Header().Set("X-WP-Total", strconv.Itoa(result.Total))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(result.TotalPages))
	render.JSON(w, r, result.Posts)
}

// FetchPostsByEmail returns every post owned by the given author email.
func (h *Handler) FetchPostsByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}

	posts, err := h.service.ListPostsByEmail(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, mobilecontent.ErrUserNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "User not found")
		case errors.Is(err, mobilecontent.ErrPostNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "No posts found for this user")
		default:
			h.logger.ErrorContext(r.Context(), "list posts by email failed", "err", err)
			writeError(w, r, http.StatusInternalServerError, "internal_error",
				"Posts could not be fetched.")
		}
		return
	}

	render.JSON(w, r, posts)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
