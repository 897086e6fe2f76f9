// Package content holds the static marketing copy and intake form catalog.
// The catalog is embedded at build time and parsed once at startup.
package content

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultCatalog []byte

// OtherOption is the checkbox value that enables a group's free-text field.
const OtherOption = "Other"

// Catalog is the full set of site copy.
type Catalog struct {
	Site      Site    `yaml:"site"`
	Home      Home    `yaml:"home"`
	About     About   `yaml:"about"`
	Contact   Contact `yaml:"contact"`
	Signup    Signup  `yaml:"signup"`
	Dashboard Heading `yaml:"dashboard"`
	Portal    Heading `yaml:"portal"`
	NotFound  Heading `yaml:"not_found"`
}

// Site holds brand-wide settings.
type Site struct {
	Name string    `yaml:"name"`
	Nav  []NavLink `yaml:"nav"`
}

// NavLink is a single top bar entry.
type NavLink struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// Home is the landing page copy.
type Home struct {
	Heading string `yaml:"heading"`
	CTA     string `yaml:"cta"`
}

// About is the about page copy.
type About struct {
	Heading    string   `yaml:"heading"`
	Lead       string   `yaml:"lead"`
	Paragraphs []string `yaml:"paragraphs"`
}

// Contact is the contact page copy.
type Contact struct {
	Heading string `yaml:"heading"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
}

// Heading is a page whose only copy is a heading.
// Dashboard and portal headings carry a single %s for the customer identifier.
type Heading struct {
	Heading string `yaml:"heading"`
}

// Signup is the intake form layout.
type Signup struct {
	Heading  string          `yaml:"heading"`
	Submit   string          `yaml:"submit"`
	Sections []SignupSection `yaml:"sections"`
}

// SignupSection groups checkbox groups under a title.
type SignupSection struct {
	Title  string        `yaml:"title"`
	Groups []OptionGroup `yaml:"groups"`
}

// OptionGroup is a set of checkboxes sharing one field name.
type OptionGroup struct {
	Field      string   `yaml:"field"`
	Label      string   `yaml:"label"`
	OtherField string   `yaml:"other_field"`
	Options    []string `yaml:"options"`
}

// HasOther reports whether the group offers a free-text "Other" entry.
func (g OptionGroup) HasOther() bool {
	return g.OtherField != ""
}

// Groups returns every option group in form order.
func (s Signup) Groups() []OptionGroup {
	var groups []OptionGroup
	for _, section := range s.Sections {
		groups = append(groups, section.Groups...)
	}
	return groups
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog from YAML and checks it is usable.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse content catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if c.Site.Name == "" {
		return errors.New("content catalog: site.name is required")
	}
	seen := make(map[string]bool)
	for _, g := range c.Signup.Groups() {
		if g.Field == "" {
			return errors.New("content catalog: signup group without field")
		}
		if seen[g.Field] {
			return fmt.Errorf("content catalog: duplicate signup field %q", g.Field)
		}
		seen[g.Field] = true
		if len(g.Options) == 0 {
			return fmt.Errorf("content catalog: signup field %q has no options", g.Field)
		}
	}
	return nil
}
