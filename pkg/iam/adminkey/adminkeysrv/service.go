package adminkeysrv

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/google/uuid"
)

// Service is the admin-key state machine: create, disable, enable, validate.
type Service struct {
	repo   adminkey.Repository
	hasher *secrets.Hasher
	clock  kernel.Clock
}

func NewService(repo adminkey.Repository, hasher *secrets.Hasher, clock kernel.Clock) *Service {
	return &Service{repo: repo, hasher: hasher, clock: clock}
}

// CreateKey generates a new admin key and persists it active. The plaintext
// secret is returned exactly once and is not recoverable afterwards.
func (s *Service) CreateKey(ctx context.Context) (*adminkey.CreatedKey, error) {
	return s.create(ctx, false)
}

// CreateBootstrapKey is CreateKey with the bootstrap flag set. Called once at
// first startup when the key table is empty.
func (s *Service) CreateBootstrapKey(ctx context.Context) (*adminkey.CreatedKey, error) {
	return s.create(ctx, true)
}

func (s *Service) create(ctx context.Context, bootstrap bool) (*adminkey.CreatedKey, error) {
	secret, err := secrets.GenerateKey()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	key := adminkey.AdminKey{
		ID:          uuid.NewString(),
		SecretHash:  hash,
		IsActive:    true,
		IsBootstrap: bootstrap,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, errx.Wrap(err, "failed to save admin key", errx.TypeInternal)
	}

	return &adminkey.CreatedKey{ID: key.ID, Key: secret}, nil
}

// DisableKey deactivates a key, refusing when it is the last active one.
func (s *Service) DisableKey(ctx context.Context, id string) (*adminkey.AdminKey, error) {
	key, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := adminkey.AssertFound(key); err != nil {
		return nil, err
	}
	return s.disable(ctx, key)
}

// DisableBootstrapKey deactivates the key created at first boot. Allowed only
// once another active key exists.
func (s *Service) DisableBootstrapKey(ctx context.Context) (*adminkey.AdminKey, error) {
	key, err := s.repo.FindBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if err := adminkey.AssertFound(key); err != nil {
		return nil, err
	}
	return s.disable(ctx, key)
}

func (s *Service) disable(ctx context.Context, key *adminkey.AdminKey) (*adminkey.AdminKey, error) {
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, errx.Wrap(err, "failed to count active admin keys", errx.TypeInternal)
	}
	if err := adminkey.AssertCanDisable(key, active); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, key.ID, false); err != nil {
		return nil, err
	}
	key.IsActive = false
	return key, nil
}

// EnableKey reactivates a disabled key.
func (s *Service) EnableKey(ctx context.Context, id string) (*adminkey.AdminKey, error) {
	key, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := adminkey.AssertFound(key); err != nil {
		return nil, err
	}
	if err := adminkey.AssertCanEnable(key); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, key.ID, true); err != nil {
		return nil, err
	}
	key.IsActive = true
	return key, nil
}

// DeleteKey removes a key outright. Maintenance operation; the at-least-one
// invariant still applies when the target is active.
func (s *Service) DeleteKey(ctx context.Context, id string) error {
	key, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := adminkey.AssertFound(key); err != nil {
		return err
	}
	if key.IsActive {
		active, err := s.repo.CountActive(ctx)
		if err != nil {
			return errx.Wrap(err, "failed to count active admin keys", errx.TypeInternal)
		}
		if active < 2 {
			return adminkey.ErrNotEnoughActiveKeys()
		}
	}
	return s.repo.Delete(ctx, id)
}

// Validate compares candidate against every active key's hash. A linear scan
// is acceptable at the expected key cardinality.
func (s *Service) Validate(ctx context.Context, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}
	keys, err := s.repo.FindActive(ctx)
	if err != nil {
		return false, errx.Wrap(err, "failed to load admin keys", errx.TypeInternal)
	}
	for _, key := range keys {
		if s.hasher.Verify(candidate, key.SecretHash) {
			return true, nil
		}
	}
	return false, nil
}

// EnsureBootstrapKey creates the initial admin key when none exists yet.
// Returns the plaintext key only in that case.
func (s *Service) EnsureBootstrapKey(ctx context.Context) (*adminkey.CreatedKey, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, errx.Wrap(err, "failed to count admin keys", errx.TypeInternal)
	}
	if count > 0 {
		return nil, nil
	}
	return s.CreateBootstrapKey(ctx)
}
