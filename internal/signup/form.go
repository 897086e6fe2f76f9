// Package signup models the intake form state.
//
// A Form maps field identifiers to the most recent value typed or selected.
// It performs no validation; every update succeeds.
package signup

import (
	"net/url"
	"slices"
	"sort"
	"strings"
)

// Field identifiers posted by the intake form.
const (
	FieldRole          = "role"
	FieldRoleOther     = "roleOther"
	FieldMainGoal      = "mainGoal"
	FieldMainGoalOther = "mainGoalOther"
	FieldTone          = "tone"
	FieldFormat        = "format"
	FieldFormatOther   = "formatOther"
)

// ValueSeparator joins the selected options of a checkbox group.
const ValueSeparator = "; "

var checkboxFields = map[string]bool{
	FieldRole:     true,
	FieldMainGoal: true,
	FieldTone:     true,
	FieldFormat:   true,
}

// IsCheckboxField reports whether name is a multi-select checkbox group.
func IsCheckboxField(name string) bool {
	return checkboxFields[name]
}

// Form is the in-memory intake form state.
// The zero value is not usable; call New.
type Form struct {
	text     map[string]string
	selected map[string][]string
}

// New returns an empty form.
func New() *Form {
	return &Form{
		text:     make(map[string]string),
		selected: make(map[string][]string),
	}
}

// UpdateField overwrites the entry for name.
// On a checkbox group the selection is replaced by value alone,
// or cleared when value is empty.
func (f *Form) UpdateField(name, value string) {
	if IsCheckboxField(name) {
		if value == "" {
			delete(f.selected, name)
			return
		}
		f.selected[name] = []string{value}
		return
	}
	f.text[name] = value
}

// Toggle flips the selection of option within the checkbox group name
// and returns the new selection state.
func (f *Form) Toggle(name, option string) bool {
	current := f.selected[name]
	if i := slices.Index(current, option); i >= 0 {
		current = slices.Delete(current, i, i+1)
		if len(current) == 0 {
			delete(f.selected, name)
		} else {
			f.selected[name] = current
		}
		return false
	}
	f.selected[name] = append(current, option)
	return true
}

// IsSelected reports whether option is checked in group name.
func (f *Form) IsSelected(name, option string) bool {
	return slices.Contains(f.selected[name], option)
}

// Selected returns the checked options of group name in selection order.
func (f *Form) Selected(name string) []string {
	return slices.Clone(f.selected[name])
}

// Value returns the current string value of name.
// Checkbox groups yield their selections joined by ValueSeparator.
func (f *Form) Value(name string) string {
	if sel, ok := f.selected[name]; ok {
		return strings.Join(sel, ValueSeparator)
	}
	return f.text[name]
}

// Values returns a snapshot of every populated field.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.text)+len(f.selected))
	for name, v := range f.text {
		out[name] = v
	}
	for name := range f.selected {
		out[name] = f.Value(name)
	}
	return out
}

// IsEmpty reports whether nothing has been typed or selected.
func (f *Form) IsEmpty() bool {
	if len(f.selected) > 0 {
		return false
	}
	for _, v := range f.text {
		if v != "" {
			return false
		}
	}
	return true
}

// FromValues rebuilds a form from a submitted body by replaying each
// field as a user event: checkbox values are toggled on, text fields take
// their last posted value. Keys are replayed in sorted order.
func FromValues(values url.Values) *Form {
	f := New()

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		posted := values[name]
		if len(posted) == 0 {
			continue
		}
		if IsCheckboxField(name) {
			for _, option := range posted {
				if option != "" && !f.IsSelected(name, option) {
					f.Toggle(name, option)
				}
			}
			continue
		}
		f.UpdateField(name, posted[len(posted)-1])
	}

	return f
}
