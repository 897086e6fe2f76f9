package site

import (
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	g "maragu.dev/gomponents"

	"github.com/noblesavage/site/internal/content"
	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/signup"
)

func newTestPages(t *testing.T) *Pages {
	t.Helper()
	catalog, err := content.Load()
	if err != nil {
		t.Fatalf("content.Load failed: %v", err)
	}
	return New(catalog)
}

func render(t *testing.T, node g.Node) string {
	t.Helper()
	var b strings.Builder
	if err := node.Render(&b); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return b.String()
}

func h1(text string) string {
	return "<h1>" + html.EscapeString(text) + "</h1>"
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	var got []string
	for _, r := range Routes() {
		got = append(got, r.Name+" "+r.Pattern)
	}
	want := []string{
		"home /",
		"about /about",
		"contact /contact",
		"signup /signup",
		"dashboard /dashboard/{customerId}",
		"portal /portal/{customerId}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("route table mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomerPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id        string
		dashboard string
		portal    string
	}{
		{"123", "/dashboard/123", "/portal/123"},
		{"01J0ABC", "/dashboard/01J0ABC", "/portal/01J0ABC"},
		{"a b", "/dashboard/a%20b", "/portal/a%20b"},
		{"x/y", "/dashboard/x%2Fy", "/portal/x%2Fy"},
	}

	for _, tt := range tests {
		if got := DashboardPath(tt.id); got != tt.dashboard {
			t.Errorf("DashboardPath(%q) = %q, want %q", tt.id, got, tt.dashboard)
		}
		if got := PortalPath(tt.id); got != tt.portal {
			t.Errorf("PortalPath(%q) = %q, want %q", tt.id, got, tt.portal)
		}
	}
}

func TestPages_HeadingRenderedOnce(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)
	c := p.Catalog()

	tests := []struct {
		name    string
		node    g.Node
		heading string
	}{
		{"home", p.Home(), c.Home.Heading},
		{"about", p.About(), c.About.Heading},
		{"contact", p.Contact(), c.Contact.Heading},
		{"signup", p.Signup(signup.New(), signup.Idle()), c.Signup.Heading},
		{"dashboard", p.Dashboard("123", nil), "Dashboard for Customer 123"},
		{"portal", p.Portal("123", nil), "Portal for Customer 123"},
		{"not found", p.NotFound(), c.NotFound.Heading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := render(t, tt.node)
			if n := strings.Count(out, h1(tt.heading)); n != 1 {
				t.Errorf("heading %q rendered %d times", tt.heading, n)
			}
			if n := strings.Count(out, "<h1>"); n != 1 {
				t.Errorf("page has %d h1 elements, want 1", n)
			}
			if !strings.HasPrefix(out, "<!doctype html>") {
				t.Errorf("missing doctype: %.40s", out)
			}
			for _, link := range c.Site.Nav {
				if !strings.Contains(out, `href="`+link.Path+`"`) {
					t.Errorf("nav link %s missing", link.Path)
				}
			}
		})
	}
}

func TestPages_NavMarksCurrentPage(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)
	out := render(t, p.About())

	if !strings.Contains(out, `<a href="/about" aria-current="page">`) {
		t.Errorf("about link not marked current:\n%s", out)
	}
	if strings.Count(out, `aria-current="page"`) != 1 {
		t.Error("exactly one nav link should be current")
	}
}

func TestPages_CustomerIDRenderedVerbatim(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)
	ids := []string{"123", "01J0000000000000000000TEST", "customer-42", "ünïcode", "100%", "<b>bold</b>"}

	for _, id := range ids {
		for name, node := range map[string]g.Node{
			"dashboard": p.Dashboard(id, nil),
			"portal":    p.Portal(id, nil),
		} {
			out := render(t, node)
			if !strings.Contains(out, html.EscapeString(id)) {
				t.Errorf("%s page does not contain id %q", name, id)
			}
			if strings.Contains(id, "<") && strings.Contains(out, id) {
				t.Errorf("%s page rendered unescaped markup for id %q", name, id)
			}
		}
	}
}

func TestPages_CustomerPreferences(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)

	intake := &model.Intake{
		ID:        "abc",
		Roles:     []string{"Other"},
		RoleOther: "Farmer",
		Tones:     []string{"Clear & Professional (straight to the point)"},
	}

	out := render(t, p.Dashboard("abc", intake))
	for _, want := range []string{
		"Your preferences",
		"<strong>Role: </strong>Other, Farmer",
		"Clear &amp; Professional (straight to the point)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	empty := render(t, p.Portal("abc", &model.Intake{ID: "abc"}))
	if !strings.Contains(empty, "No preferences were captured.") {
		t.Error("empty intake should say nothing was captured")
	}

	none := render(t, p.Portal("abc", nil))
	if strings.Contains(none, "preferences") {
		t.Error("portal without intake should only show the heading")
	}
}

func TestPages_SignupReflectsForm(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)

	form := signup.New()
	form.Toggle(signup.FieldMainGoal, "Grow business")
	form.UpdateField(signup.FieldFormatOther, `Audio "memo"`)

	out := render(t, p.Signup(form, signup.Idle()))

	if !strings.Contains(out, `name="mainGoal" value="Grow business" checked`) {
		t.Error("selected option should be checked")
	}
	if strings.Count(out, " checked") != 1 {
		t.Errorf("expected exactly one checked box, got %d", strings.Count(out, " checked"))
	}
	if !strings.Contains(out, `name="formatOther" value="Audio &#34;memo&#34;"`) {
		t.Errorf("other text not reflected:\n%s", out)
	}
	if !strings.Contains(out, `<form class="intake" method="post" action="/signup">`) {
		t.Error("form should post to /signup")
	}

	c := p.Catalog().Signup
	for _, group := range c.Groups() {
		for _, option := range group.Options {
			if !strings.Contains(out, `value="`+html.EscapeString(option)+`"`) {
				t.Errorf("option %q of %s missing", option, group.Field)
			}
		}
		if group.HasOther() && !strings.Contains(out, `name="`+group.OtherField+`"`) {
			t.Errorf("other field %s missing", group.OtherField)
		}
	}
	if strings.Contains(out, `role="alert"`) {
		t.Error("idle form should not show an alert")
	}
}

func TestPages_SignupShowsFailure(t *testing.T) {
	t.Parallel()

	p := newTestPages(t)
	out := render(t, p.Signup(nil, signup.Failed("try again later")))

	if !strings.Contains(out, `role="alert">try again later</div>`) {
		t.Errorf("failure reason not shown:\n%s", out)
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(Static())
	defer srv.Close()

	resp, err := http.Get(srv.URL + StylesheetPath)
	if err != nil {
		t.Fatalf("GET stylesheet failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), ".navbar") {
		t.Error("stylesheet body looks wrong")
	}

	missing, err := http.Get(srv.URL + "/static/nope.css")
	if err != nil {
		t.Fatalf("GET missing failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", missing.StatusCode)
	}
}
