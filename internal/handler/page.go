package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/noblesavage/site/internal/metrics"
	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/service"
	"github.com/noblesavage/site/internal/signup"
	"github.com/noblesavage/site/internal/site"
)

// SignupService records submitted intake forms.
type SignupService interface {
	Submit(ctx context.Context, form *signup.Form, meta service.SubmitMeta) signup.Submission
}

// CustomerService looks up stored intakes by customer identifier.
type CustomerService interface {
	GetCustomer(ctx context.Context, id string) (*model.Intake, error)
}

// PageHandler serves the HTML pages of the route table.
type PageHandler struct {
	pages     *site.Pages
	signups   SignupService
	customers CustomerService
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pages *site.Pages, signups SignupService, customers CustomerService, recorder metrics.Recorder, logger *slog.Logger) *PageHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PageHandler{
		pages:     pages,
		signups:   signups,
		customers: customers,
		metrics:   recorder,
		logger:    logger,
	}
}

// Mount registers every route of site.Routes on r.
// submitMiddleware wraps only the signup POST.
func (h *PageHandler) Mount(r chi.Router, submitMiddleware ...func(http.Handler) http.Handler) {
	for _, route := range site.Routes() {
		switch route.Name {
		case site.RouteHome:
			r.Get(route.Pattern, h.Home)
		case site.RouteAbout:
			r.Get(route.Pattern, h.About)
		case site.RouteContact:
			r.Get(route.Pattern, h.Contact)
		case site.RouteSignup:
			r.Get(route.Pattern, h.ShowSignup)
			r.With(submitMiddleware...).Post(route.Pattern, h.SubmitSignup)
		case site.RouteDashboard:
			r.Get(route.Pattern, h.Dashboard)
		case site.RoutePortal:
			r.Get(route.Pattern, h.Portal)
		}
	}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RouteHome)
	renderPage(w, h.logger, http.StatusOK, h.pages.Home())
}

// About handles GET /about.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RouteAbout)
	renderPage(w, h.logger, http.StatusOK, h.pages.About())
}

// Contact handles GET /contact.
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RouteContact)
	renderPage(w, h.logger, http.StatusOK, h.pages.Contact())
}

// ShowSignup handles GET /signup with an empty form.
func (h *PageHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RouteSignup)
	renderPage(w, h.logger, http.StatusOK, h.pages.Signup(signup.New(), signup.Idle()))
}

// SubmitSignup handles POST /signup.
// Success redirects to the customer dashboard with 303 See Other.
// Failure re-renders the filled form with the reason.
func (h *PageHandler) SubmitSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unreadable signup body", "error", err)
		renderPage(w, h.logger, http.StatusBadRequest,
			h.pages.Signup(signup.New(), signup.Failed("Your answers could not be read. Please try again.")))
		return
	}

	form := signup.FromValues(r.PostForm)
	sub := finished(h.signups.Submit(r.Context(), form, service.SubmitMeta{Referrer: r.Referer()}))

	if sub.State != signup.StateSucceeded {
		renderPage(w, h.logger, http.StatusServiceUnavailable, h.pages.Signup(form, sub))
		return
	}

	http.Redirect(w, r, site.DashboardPath(sub.CustomerID), http.StatusSeeOther)
}

// RateLimited re-renders the submitted form with message and 429.
// It is the page hook of the signup rate limiter.
func (h *PageHandler) RateLimited(w http.ResponseWriter, r *http.Request, message string) {
	form := signup.New()
	if err := r.ParseForm(); err == nil {
		form = signup.FromValues(r.PostForm)
	}
	renderPage(w, h.logger, http.StatusTooManyRequests, h.pages.Signup(form, signup.Failed(message)))
}

// Dashboard handles GET /dashboard/{customerId}.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RouteDashboard)
	id := customerID(r)
	renderPage(w, h.logger, http.StatusOK, h.pages.Dashboard(id, h.lookup(r.Context(), id)))
}

// Portal handles GET /portal/{customerId}.
func (h *PageHandler) Portal(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncPageView(site.RoutePortal)
	id := customerID(r)
	renderPage(w, h.logger, http.StatusOK, h.pages.Portal(id, h.lookup(r.Context(), id)))
}

// lookup returns the stored intake for id, or nil.
// Customer pages never fail on lookup errors.
func (h *PageHandler) lookup(ctx context.Context, id string) *model.Intake {
	if h.customers == nil {
		return nil
	}
	intake, err := h.customers.GetCustomer(ctx, id)
	if err != nil {
		if !errors.Is(err, service.ErrCustomerNotFound) {
			h.logger.Warn("customer lookup failed", "customer_id", id, "error", err)
		}
		return nil
	}
	return intake
}

// customerID returns the decoded customer identifier path segment.
// chi reads from RawPath when it is set and from the decoded Path otherwise,
// so only the RawPath case still needs unescaping.
func customerID(r *http.Request) string {
	raw := chi.URLParam(r, site.CustomerIDParam)
	if r.URL.RawPath == "" {
		return raw
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
