// Package handler provides HTTP request handlers.
package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	g "maragu.dev/gomponents"

	"github.com/noblesavage/site/internal/handler/dto"
	"github.com/noblesavage/site/internal/signup"
	"github.com/noblesavage/site/internal/site"
)

// Handler serves the fallback responses shared by every route.
type Handler struct {
	pages  *site.Pages
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(pages *site.Pages, logger *slog.Logger) *Handler {
	return &Handler{pages: pages, logger: logger}
}

// NotFound handles 404 responses: JSON under /api/, the not-found page elsewhere.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	renderPage(w, h.logger, http.StatusNotFound, h.pages.NotFound())
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// renderPage renders node fully before writing so a render error can still become a 500.
func renderPage(w http.ResponseWriter, logger *slog.Logger, status int, node g.Node) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		logger.Error("page render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// finished maps a submission that never reached a terminal state to a failure.
func finished(sub signup.Submission) signup.Submission {
	if sub.Done() {
		return sub
	}
	return signup.Failed(unfinishedReason)
}

const unfinishedReason = "Your signup did not complete. Please try again."

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
