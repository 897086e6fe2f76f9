package site

import (
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/noblesavage/site/internal/model"
)

// Home renders the landing page.
func (p *Pages) Home() g.Node {
	c := p.catalog.Home
	return p.page("", "/",
		Section(
			Class("hero"),
			H1(g.Text(c.Heading)),
			A(Class("button"), Href("/signup"), g.Text(c.CTA)),
		),
	)
}

// About renders the about page.
func (p *Pages) About() g.Node {
	c := p.catalog.About
	return p.page("About", "/about",
		H1(g.Text(c.Heading)),
		P(Class("lead"), g.Text(c.Lead)),
		g.Map(c.Paragraphs, func(text string) g.Node {
			return P(g.Text(text))
		}),
	)
}

// Contact renders the contact page.
func (p *Pages) Contact() g.Node {
	c := p.catalog.Contact
	return p.page("Contact", "/contact",
		H1(g.Text(c.Heading)),
		P(Strong(g.Text("Email: ")), A(Href("mailto:"+c.Email), g.Text(c.Email))),
		P(Strong(g.Text("Phone: ")), A(Href("tel:"+c.Phone), g.Text(c.Phone))),
	)
}

// Dashboard renders the customer dashboard. The identifier is shown as given.
// intake may be nil.
func (p *Pages) Dashboard(customerID string, intake *model.Intake) g.Node {
	return p.customerPage("Dashboard", p.catalog.Dashboard.Heading, customerID, intake)
}

// Portal renders the customer portal. The identifier is shown as given.
// intake may be nil.
func (p *Pages) Portal(customerID string, intake *model.Intake) g.Node {
	return p.customerPage("Portal", p.catalog.Portal.Heading, customerID, intake)
}

func (p *Pages) customerPage(title, heading, customerID string, intake *model.Intake) g.Node {
	return p.page(title, "",
		H1(g.Text(fmt.Sprintf(heading, customerID))),
		preferences(intake),
	)
}

func preferences(intake *model.Intake) g.Node {
	if intake == nil {
		return nil
	}
	prefs := intake.Preferences()
	if len(prefs) == 0 {
		return P(Class("muted"), g.Text("No preferences were captured."))
	}
	return Section(
		Class("preferences"),
		H2(g.Text("Your preferences")),
		Ul(
			g.Map(prefs, func(pref model.Preference) g.Node {
				return Li(Strong(g.Text(pref.Label+": ")), g.Text(strings.Join(pref.Values, ", ")))
			}),
		),
	)
}

// NotFound renders the page for unknown paths.
func (p *Pages) NotFound() g.Node {
	return p.page("Not found", "",
		H1(g.Text(p.catalog.NotFound.Heading)),
		P(A(Href("/"), g.Text("Back to home"))),
	)
}
