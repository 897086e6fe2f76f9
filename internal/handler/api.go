package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/noblesavage/site/internal/handler/dto"
	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/repository"
	"github.com/noblesavage/site/internal/service"
	"github.com/noblesavage/site/internal/signup"
	"github.com/noblesavage/site/internal/site"
)

// defaultListLimit is used when the admin listing has no limit parameter.
const defaultListLimit = 20

// IntakeLister lists stored intakes for administrators.
type IntakeLister interface {
	ListIntakes(ctx context.Context, limit int) ([]*model.Intake, error)
}

// PlaceholderChecker is implemented by customer services that answer
// submissions with a fixed identifier when nothing is stored.
type PlaceholderChecker interface {
	IsPlaceholderCustomer(id string) bool
}

// APIHandler serves the JSON API.
type APIHandler struct {
	signups   SignupService
	customers CustomerService
	intakes   IntakeLister
	logger    *slog.Logger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(signups SignupService, customers CustomerService, intakes IntakeLister, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		signups:   signups,
		customers: customers,
		intakes:   intakes,
		logger:    logger,
	}
}

// Signup handles POST /api/signup.
func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	sub := finished(h.signups.Submit(r.Context(), req.Form(), service.SubmitMeta{Referrer: r.Referer()}))
	if sub.State != signup.StateSucceeded {
		writeError(w, http.StatusServiceUnavailable, "SIGNUP_FAILED", sub.Reason)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SignupResponse{
		Message:    "Signup successful",
		CustomerID: sub.CustomerID,
		Dashboard:  dto.PageLink{Path: site.DashboardPath(sub.CustomerID)},
		Portal:     dto.PageLink{Path: site.PortalPath(sub.CustomerID)},
	})
}

// Customer handles GET /api/customer/{customerId}.
func (h *APIHandler) Customer(w http.ResponseWriter, r *http.Request) {
	id := customerID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Customer ID is required")
		return
	}

	if pc, ok := h.customers.(PlaceholderChecker); ok && pc.IsPlaceholderCustomer(id) {
		writeJSON(w, http.StatusOK, dto.PlaceholderCustomerResponse{})
		return
	}

	intake, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	prefs := intake.Preferences()
	if prefs == nil {
		prefs = []model.Preference{}
	}

	writeJSON(w, http.StatusOK, dto.CustomerResponse{
		Profile: dto.ToIntakeResponse(intake),
		Dashboard: dto.DashboardResponse{
			Path:        site.DashboardPath(intake.ID),
			PortalPath:  site.PortalPath(intake.ID),
			Preferences: prefs,
		},
	})
}

// ListIntakes handles GET /api/v1/intakes?limit=N. Admin only.
func (h *APIHandler) ListIntakes(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > repository.MaxListLimit {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	intakes, err := h.intakes.ListIntakes(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToIntakeListResponse(intakes))
}

func (h *APIHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Intake storage is not configured")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
