package project

import "strings"

// AssertName fails when the project name is blank or whitespace-only.
func AssertName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired()
	}
	return nil
}

// AssertFound fails when the project lookup returned nothing.
func AssertFound(p *Project) error {
	if p == nil {
		return ErrNotFound()
	}
	return nil
}

// AssertActive fails when the project is disabled. Used for every
// tenant-scoped operation.
func AssertActive(p *Project) error {
	if !p.IsActive {
		return ErrDisabled()
	}
	return nil
}

// AssertNotDisabled fails when the project is already disabled. Used before
// a disable transition.
func AssertNotDisabled(p *Project) error {
	if !p.IsActive {
		return ErrAlreadyDisabled()
	}
	return nil
}

// AssertNotActive fails when the project is already active. Used before an
// enable transition.
func AssertNotActive(p *Project) error {
	if p.IsActive {
		return ErrAlreadyActive()
	}
	return nil
}

// AssertNameNotTaken fails when another project already uses the name.
func AssertNameNotTaken(existing *Project) error {
	if existing != nil {
		return ErrNameRepeated()
	}
	return nil
}
