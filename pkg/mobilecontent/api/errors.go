package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Code: code, Message: message, Status: status})
}

func writeForbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusForbidden, "rest_forbidden",
		"You are not authorized to access this resource.")
}

func writeInvalidData(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusBadRequest, "invalid_data",
		"Data must be an array of posts.")
}
