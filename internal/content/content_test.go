package content

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Site.Name != "Noble Savage" {
		t.Errorf("Site.Name = %q, want Noble Savage", c.Site.Name)
	}

	wantNav := []NavLink{
		{Label: "Home", Path: "/"},
		{Label: "About Us", Path: "/about"},
		{Label: "Contact", Path: "/contact"},
	}
	if diff := cmp.Diff(wantNav, c.Site.Nav); diff != "" {
		t.Errorf("nav mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(c.Dashboard.Heading, "%s") {
		t.Errorf("dashboard heading %q has no placeholder", c.Dashboard.Heading)
	}
	if !strings.Contains(c.Portal.Heading, "%s") {
		t.Errorf("portal heading %q has no placeholder", c.Portal.Heading)
	}
}

func TestLoad_SignupFields(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var fields, others []string
	for _, g := range c.Signup.Groups() {
		fields = append(fields, g.Field)
		if g.HasOther() {
			others = append(others, g.OtherField)
		}
	}

	if diff := cmp.Diff([]string{"role", "mainGoal", "tone", "format"}, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"roleOther", "mainGoalOther", "formatOther"}, others); diff != "" {
		t.Errorf("other fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "site: [unterminated"},
		{"missing name", "site:\n  nav: []\n"},
		{"group without field", "site:\n  name: x\nsignup:\n  sections:\n    - groups:\n        - options: [a]\n"},
		{"group without options", "site:\n  name: x\nsignup:\n  sections:\n    - groups:\n        - field: role\n"},
		{"duplicate field", "site:\n  name: x\nsignup:\n  sections:\n    - groups:\n        - field: role\n          options: [a]\n        - field: role\n          options: [b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
