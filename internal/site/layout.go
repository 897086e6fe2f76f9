package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/noblesavage/site/internal/content"
)

// StylesheetPath is where the embedded stylesheet is served.
const StylesheetPath = "/static/site.css"

// Pages renders every page from a content catalog.
type Pages struct {
	catalog *content.Catalog
}

// New creates a page renderer.
func New(catalog *content.Catalog) *Pages {
	return &Pages{catalog: catalog}
}

// Catalog returns the catalog the pages are rendered from.
func (p *Pages) Catalog() *content.Catalog {
	return p.catalog
}

func (p *Pages) page(title, path string, body ...g.Node) g.Node {
	fullTitle := p.catalog.Site.Name
	if title != "" {
		fullTitle = title + " | " + fullTitle
	}

	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				g.El("title", g.Text(fullTitle)),
				Link(Rel("stylesheet"), Href(StylesheetPath)),
			),
			Body(
				p.navBar(path),
				Main(Class("page"), g.Group(body)),
			),
		),
	)
}

func (p *Pages) navBar(path string) g.Node {
	return Nav(
		Class("navbar"),
		A(Class("brand"), Href("/"), g.Text(p.catalog.Site.Name)),
		Ul(
			Class("nav-links"),
			g.Map(p.catalog.Site.Nav, func(link content.NavLink) g.Node {
				return Li(
					A(
						Href(link.Path),
						g.If(link.Path == path, g.Attr("aria-current", "page")),
						g.Text(link.Label),
					),
				)
			}),
		),
	)
}
