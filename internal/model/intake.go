// Package model defines domain entities for the application.
package model

import "time"

// Intake is a submitted signup form as recorded by the backend.
// Its ID is the customer identifier handed back to the visitor.
type Intake struct {
	ID            string    `json:"id"`
	Roles         []string  `json:"roles"`
	RoleOther     string    `json:"role_other,omitempty"`
	MainGoals     []string  `json:"main_goals"`
	MainGoalOther string    `json:"main_goal_other,omitempty"`
	Tones         []string  `json:"tones"`
	Formats       []string  `json:"formats"`
	FormatOther   string    `json:"format_other,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsEmpty reports whether the visitor submitted nothing at all.
func (i *Intake) IsEmpty() bool {
	return len(i.Roles) == 0 && i.RoleOther == "" &&
		len(i.MainGoals) == 0 && i.MainGoalOther == "" &&
		len(i.Tones) == 0 &&
		len(i.Formats) == 0 && i.FormatOther == ""
}

// Preference is one labelled answer shown on the dashboard and portal.
type Preference struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Preferences flattens the intake into display order, skipping empty answers.
// A free-text "Other" answer is appended to its group.
func (i *Intake) Preferences() []Preference {
	groups := []struct {
		label  string
		values []string
		other  string
	}{
		{"Role", i.Roles, i.RoleOther},
		{"Main goal", i.MainGoals, i.MainGoalOther},
		{"Tone", i.Tones, ""},
		{"Format", i.Formats, i.FormatOther},
	}

	var prefs []Preference
	for _, g := range groups {
		values := append([]string(nil), g.values...)
		if g.other != "" {
			values = append(values, g.other)
		}
		if len(values) == 0 {
			continue
		}
		prefs = append(prefs, Preference{Label: g.label, Values: values})
	}
	return prefs
}
