package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/noblesavage/site/internal/content"
	"github.com/noblesavage/site/internal/signup"
)

// Signup renders the intake form. Checkboxes and text fields reflect form,
// and a failed submission shows its reason above the form.
func (p *Pages) Signup(form *signup.Form, sub signup.Submission) g.Node {
	if form == nil {
		form = signup.New()
	}
	c := p.catalog.Signup

	return p.page("Sign Up", "/signup",
		H1(g.Text(c.Heading)),
		g.If(sub.State == signup.StateFailed,
			Div(Class("alert"), g.Attr("role", "alert"), g.Text(sub.Reason)),
		),
		g.El("form",
			Class("intake"),
			Method("post"),
			Action("/signup"),
			g.Map(c.Sections, func(section content.SignupSection) g.Node {
				return Section(
					H2(g.Text(section.Title)),
					g.Map(section.Groups, func(group content.OptionGroup) g.Node {
						return optionGroup(form, group)
					}),
				)
			}),
			Button(Type("submit"), Class("button"), g.Text(c.Submit)),
		),
	)
}

func optionGroup(form *signup.Form, group content.OptionGroup) g.Node {
	return g.El("fieldset",
		g.El("legend", g.Text(group.Label)),
		g.Map(group.Options, func(option string) g.Node {
			return g.El("label",
				Class("option"),
				Input(
					Type("checkbox"),
					Name(group.Field),
					Value(option),
					g.If(form.IsSelected(group.Field, option), g.Attr("checked")),
				),
				g.Text(" "+option),
			)
		}),
		g.If(group.HasOther(), otherInput(form, group)),
	)
}

func otherInput(form *signup.Form, group content.OptionGroup) g.Node {
	id := "field-" + group.OtherField
	return Div(
		Class("other"),
		g.El("label", g.Attr("for", id), g.Text("If "+content.OtherOption+", please specify:")),
		Input(
			Type("text"),
			ID(id),
			Name(group.OtherField),
			Value(form.Value(group.OtherField)),
		),
	)
}
