// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/signup"
)

// SignupRequest is the JSON body of POST /api/signup.
// Field names match the HTML form.
type SignupRequest struct {
	Role          []string `json:"role"`
	RoleOther     string   `json:"roleOther"`
	MainGoal      []string `json:"mainGoal"`
	MainGoalOther string   `json:"mainGoalOther"`
	Tone          []string `json:"tone"`
	Format        []string `json:"format"`
	FormatOther   string   `json:"formatOther"`
}

// Form replays the request into form state the same way a browser post is replayed.
func (r SignupRequest) Form() *signup.Form {
	f := signup.New()
	toggleAll(f, signup.FieldRole, r.Role)
	toggleAll(f, signup.FieldMainGoal, r.MainGoal)
	toggleAll(f, signup.FieldTone, r.Tone)
	toggleAll(f, signup.FieldFormat, r.Format)
	f.UpdateField(signup.FieldRoleOther, r.RoleOther)
	f.UpdateField(signup.FieldMainGoalOther, r.MainGoalOther)
	f.UpdateField(signup.FieldFormatOther, r.FormatOther)
	return f
}

func toggleAll(f *signup.Form, field string, options []string) {
	for _, option := range options {
		if option != "" && !f.IsSelected(field, option) {
			f.Toggle(field, option)
		}
	}
}

// PageLink points at a customer page.
type PageLink struct {
	Path string `json:"path"`
}

// SignupResponse is returned by a successful POST /api/signup.
type SignupResponse struct {
	Message    string   `json:"message"`
	CustomerID string   `json:"customer_id"`
	Dashboard  PageLink `json:"dashboard"`
	Portal     PageLink `json:"portal"`
}

// IntakeResponse represents a stored intake in API responses.
type IntakeResponse struct {
	ID            string    `json:"id"`
	Roles         []string  `json:"role"`
	RoleOther     string    `json:"roleOther,omitempty"`
	MainGoals     []string  `json:"mainGoal"`
	MainGoalOther string    `json:"mainGoalOther,omitempty"`
	Tones         []string  `json:"tone"`
	Formats       []string  `json:"format"`
	FormatOther   string    `json:"formatOther,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DashboardResponse is the dashboard view of a customer.
type DashboardResponse struct {
	Path        string             `json:"path"`
	PortalPath  string             `json:"portal_path"`
	Preferences []model.Preference `json:"preferences"`
}

// CustomerResponse is returned by GET /api/customer/{customerId}.
type CustomerResponse struct {
	Profile   IntakeResponse    `json:"profile"`
	Dashboard DashboardResponse `json:"dashboard"`
}

// PlaceholderCustomerResponse is returned for the placeholder identifier
// when nothing is stored. Both objects are empty.
type PlaceholderCustomerResponse struct {
	Profile   struct{} `json:"profile"`
	Dashboard struct{} `json:"dashboard"`
}

// IntakeListResponse is returned by the admin intake listing.
type IntakeListResponse struct {
	Data  []IntakeResponse `json:"data"`
	Count int              `json:"count"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToIntakeResponse converts an Intake model to IntakeResponse DTO.
func ToIntakeResponse(intake *model.Intake) IntakeResponse {
	return IntakeResponse{
		ID:            intake.ID,
		Roles:         nonNil(intake.Roles),
		RoleOther:     intake.RoleOther,
		MainGoals:     nonNil(intake.MainGoals),
		MainGoalOther: intake.MainGoalOther,
		Tones:         nonNil(intake.Tones),
		Formats:       nonNil(intake.Formats),
		FormatOther:   intake.FormatOther,
		CreatedAt:     intake.CreatedAt,
	}
}

// ToIntakeListResponse converts intakes to the list DTO.
func ToIntakeListResponse(intakes []*model.Intake) IntakeListResponse {
	data := make([]IntakeResponse, 0, len(intakes))
	for _, in := range intakes {
		data = append(data, ToIntakeResponse(in))
	}
	return IntakeListResponse{Data: data, Count: len(data)}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
