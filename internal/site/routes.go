// Package site renders the public pages with gomponents.
package site

import "net/url"

// Route names.
const (
	RouteHome      = "home"
	RouteAbout     = "about"
	RouteContact   = "contact"
	RouteSignup    = "signup"
	RouteDashboard = "dashboard"
	RoutePortal    = "portal"
)

// CustomerIDParam is the path parameter holding the customer identifier.
const CustomerIDParam = "customerId"

// Route maps a path pattern to a page.
type Route struct {
	Name    string
	Pattern string
}

// Routes returns the page route table.
func Routes() []Route {
	return []Route{
		{Name: RouteHome, Pattern: "/"},
		{Name: RouteAbout, Pattern: "/about"},
		{Name: RouteContact, Pattern: "/contact"},
		{Name: RouteSignup, Pattern: "/signup"},
		{Name: RouteDashboard, Pattern: "/dashboard/{" + CustomerIDParam + "}"},
		{Name: RoutePortal, Pattern: "/portal/{" + CustomerIDParam + "}"},
	}
}

// DashboardPath returns the dashboard URL path for a customer.
func DashboardPath(customerID string) string {
	return "/dashboard/" + url.PathEscape(customerID)
}

// PortalPath returns the portal URL path for a customer.
func PortalPath(customerID string) string {
	return "/portal/" + url.PathEscape(customerID)
}
