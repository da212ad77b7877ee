package role

import "strings"

// AssertName fails when the role name is blank or whitespace-only.
func AssertName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired()
	}
	return nil
}

// AssertFound fails when the role lookup returned nothing.
func AssertFound(r *Role) error {
	if r == nil {
		return ErrNotFound()
	}
	return nil
}

// AssertNameNotTaken fails when the project already has a role with the name.
func AssertNameNotTaken(existing *Role) error {
	if existing != nil {
		return ErrNameRepeated()
	}
	return nil
}
