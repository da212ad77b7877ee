package adminkeysrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeysrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu   sync.Mutex
	keys map[string]*adminkey.AdminKey
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{keys: make(map[string]*adminkey.AdminKey)}
}

func (f *fakeRepo) Create(_ context.Context, key adminkey.AdminKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key.ID] = &key
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*adminkey.AdminKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if k, ok := f.keys[id]; ok {
		copy := *k
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindBootstrap(_ context.Context) (*adminkey.AdminKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.keys {
		if k.IsBootstrap {
			copy := *k
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindActive(_ context.Context) ([]*adminkey.AdminKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*adminkey.AdminKey
	for _, k := range f.keys {
		if k.IsActive {
			copy := *k
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys), nil
}

func (f *fakeRepo) CountActive(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.keys {
		if k.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keys[id]
	if !ok {
		return adminkey.ErrNotFound()
	}
	k.IsActive = active
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[id]; !ok {
		return adminkey.ErrNotFound()
	}
	delete(f.keys, id)
	return nil
}

func (f *fakeRepo) WithTx(*sqlx.Tx) adminkey.Repository { return f }

func newService(repo adminkey.Repository) *adminkeysrv.Service {
	clock := kernel.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return adminkeysrv.NewService(repo, secrets.NewHasher(4), clock)
}

func TestCreateKeyReturnsPlaintextOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	created, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	require.Len(t, created.Key, 64)

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsActive)
	assert.NotEqual(t, created.Key, stored.SecretHash)
}

func TestDisableLastActiveKeyFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	created, err := svc.CreateKey(context.Background())
	require.NoError(t, err)

	_, err = svc.DisableKey(context.Background(), created.ID)
	assert.ErrorIs(t, err, adminkey.ErrNotEnoughActiveKeys())
}

func TestDisableWithTwoActiveKeysSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	first, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	_, err = svc.CreateKey(context.Background())
	require.NoError(t, err)

	disabled, err := svc.DisableKey(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)

	active, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestDisableUnknownKey(t *testing.T) {
	svc := newService(newFakeRepo())

	_, err := svc.DisableKey(context.Background(), "missing")
	assert.ErrorIs(t, err, adminkey.ErrNotFound())
}

func TestDisableAlreadyDisabledKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	first, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	second, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	_, err = svc.CreateKey(context.Background())
	require.NoError(t, err)

	_, err = svc.DisableKey(context.Background(), first.ID)
	require.NoError(t, err)

	_, err = svc.DisableKey(context.Background(), first.ID)
	assert.ErrorIs(t, err, adminkey.ErrAlreadyDisabled())

	// second key stays usable
	_, err = svc.DisableKey(context.Background(), second.ID)
	require.NoError(t, err)
}

func TestEnableKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	first, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	_, err = svc.CreateKey(context.Background())
	require.NoError(t, err)

	_, err = svc.EnableKey(context.Background(), first.ID)
	assert.ErrorIs(t, err, adminkey.ErrAlreadyActive())

	_, err = svc.DisableKey(context.Background(), first.ID)
	require.NoError(t, err)

	enabled, err := svc.EnableKey(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, enabled.IsActive)
}

func TestDisableBootstrapKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	boot, err := svc.CreateBootstrapKey(context.Background())
	require.NoError(t, err)

	_, err = svc.DisableBootstrapKey(context.Background())
	assert.ErrorIs(t, err, adminkey.ErrNotEnoughActiveKeys())

	_, err = svc.CreateKey(context.Background())
	require.NoError(t, err)

	disabled, err := svc.DisableBootstrapKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, boot.ID, disabled.ID)
	assert.False(t, disabled.IsActive)
}

func TestValidate(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	created, err := svc.CreateKey(context.Background())
	require.NoError(t, err)

	ok, err := svc.Validate(context.Background(), created.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Validate(context.Background(), "wrong-key")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateIgnoresDisabledKeys(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	first, err := svc.CreateKey(context.Background())
	require.NoError(t, err)
	_, err = svc.CreateKey(context.Background())
	require.NoError(t, err)

	_, err = svc.DisableKey(context.Background(), first.ID)
	require.NoError(t, err)

	ok, err := svc.Validate(context.Background(), first.Key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureBootstrapKey(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	created, err := svc.EnsureBootstrapKey(context.Background())
	require.NoError(t, err)
	require.NotNil(t, created)

	again, err := svc.EnsureBootstrapKey(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again)
}
