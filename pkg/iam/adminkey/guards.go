package adminkey

// Guard functions: precondition checks returning a typed error on violation.

// AssertFound fails when the key lookup returned nothing.
func AssertFound(key *AdminKey) error {
	if key == nil {
		return ErrNotFound()
	}
	return nil
}

// AssertCanDisable fails when the key is already disabled or when disabling it
// would leave the platform without an active admin key.
func AssertCanDisable(key *AdminKey, activeCount int) error {
	if !key.IsActive {
		return ErrAlreadyDisabled()
	}
	if activeCount < 2 {
		return ErrNotEnoughActiveKeys()
	}
	return nil
}

// AssertCanEnable fails when the key is already active.
func AssertCanEnable(key *AdminKey) error {
	if key.IsActive {
		return ErrAlreadyActive()
	}
	return nil
}
