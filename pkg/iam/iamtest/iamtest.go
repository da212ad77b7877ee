// Package iamtest provides in-memory repository implementations for service
// tests. WithTx on every fake returns the fake itself; pair them with
// databasex.PassthroughRunner.
package iamtest

import (
	"context"
	"sort"
	"sync"

	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// ProjectRepo is an in-memory project.Repository.
type ProjectRepo struct {
	mu       sync.Mutex
	projects map[kernel.ProjectID]*project.Project
}

func NewProjectRepo() *ProjectRepo {
	return &ProjectRepo{projects: make(map[kernel.ProjectID]*project.Project)}
}

func (f *ProjectRepo) WithTx(*sqlx.Tx) project.Repository { return f }

func (f *ProjectRepo) Create(_ context.Context, p project.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = &p
	return nil
}

func (f *ProjectRepo) FindByID(_ context.Context, id kernel.ProjectID) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (f *ProjectRepo) FindByName(_ context.Context, name string) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *ProjectRepo) FindActive(_ context.Context) ([]*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*project.Project
	for _, p := range f.projects {
		if p.IsActive {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *ProjectRepo) List(_ context.Context, opts kernel.PaginationOptions) ([]*project.Project, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts = opts.Normalize()
	var all []*project.Project
	for _, p := range f.projects {
		clone := *p
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *ProjectRepo) Update(_ context.Context, p project.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[p.ID]; !ok {
		return project.ErrNotFound()
	}
	f.projects[p.ID] = &p
	return nil
}

func (f *ProjectRepo) Delete(_ context.Context, id kernel.ProjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return project.ErrNotFound()
	}
	delete(f.projects, id)
	return nil
}

// RoleRepo is an in-memory role.Repository.
type RoleRepo struct {
	mu    sync.Mutex
	roles map[kernel.RoleID]*role.Role
}

func NewRoleRepo() *RoleRepo {
	return &RoleRepo{roles: make(map[kernel.RoleID]*role.Role)}
}

func (f *RoleRepo) WithTx(*sqlx.Tx) role.Repository { return f }

func (f *RoleRepo) Create(_ context.Context, r role.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.roles {
		if existing.ProjectID == r.ProjectID && existing.Name == r.Name {
			return role.ErrNameRepeated()
		}
	}
	f.roles[r.ID] = &r
	return nil
}

func (f *RoleRepo) FindByID(_ context.Context, projectID kernel.ProjectID, id kernel.RoleID) (*role.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.roles[id]; ok && r.ProjectID == projectID {
		clone := *r
		return &clone, nil
	}
	return nil, nil
}

func (f *RoleRepo) FindByName(_ context.Context, projectID kernel.ProjectID, name string) (*role.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.ProjectID == projectID && r.Name == name {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *RoleRepo) ListByProject(_ context.Context, projectID kernel.ProjectID) ([]*role.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*role.Role
	for _, r := range f.roles {
		if r.ProjectID == projectID {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *RoleRepo) Update(_ context.Context, r role.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.roles[r.ID]
	if !ok || existing.ProjectID != r.ProjectID {
		return role.ErrNotFound()
	}
	f.roles[r.ID] = &r
	return nil
}

func (f *RoleRepo) Delete(_ context.Context, projectID kernel.ProjectID, id kernel.RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.roles[id]
	if !ok || existing.ProjectID != projectID {
		return role.ErrNotFound()
	}
	delete(f.roles, id)
	return nil
}

// UserRepo is an in-memory user.Repository.
type UserRepo struct {
	mu    sync.Mutex
	users map[kernel.UserID]*user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[kernel.UserID]*user.User)}
}

func (f *UserRepo) WithTx(*sqlx.Tx) user.Repository { return f }

func (f *UserRepo) Create(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists()
		}
		if existing.Username == u.Username {
			return user.ErrAlreadyExists()
		}
	}
	f.users[u.ID] = &u
	return nil
}

func (f *UserRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (f *UserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *UserRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *UserRepo) Update(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return user.ErrNotFound()
	}
	f.users[u.ID] = &u
	return nil
}

// MembershipRepo is an in-memory user.MembershipRepository.
type MembershipRepo struct {
	mu          sync.Mutex
	memberships map[string]*user.Membership
	users       *UserRepo
	roles       *RoleRepo
}

// NewMembershipRepo joins against the given user and role repos for
// ListByProject.
func NewMembershipRepo(users *UserRepo, roles *RoleRepo) *MembershipRepo {
	return &MembershipRepo{
		memberships: make(map[string]*user.Membership),
		users:       users,
		roles:       roles,
	}
}

func membershipKey(projectID kernel.ProjectID, userID kernel.UserID) string {
	return projectID.String() + "/" + userID.String()
}

func (f *MembershipRepo) WithTx(*sqlx.Tx) user.MembershipRepository { return f }

func (f *MembershipRepo) Create(_ context.Context, m user.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := membershipKey(m.ProjectID, m.UserID)
	if _, ok := f.memberships[key]; ok {
		return user.ErrAlreadyExists()
	}
	f.memberships[key] = &m
	return nil
}

func (f *MembershipRepo) Find(_ context.Context, projectID kernel.ProjectID, userID kernel.UserID) (*user.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.memberships[membershipKey(projectID, userID)]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, nil
}

func (f *MembershipRepo) ListByProject(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*user.ProjectUser, int, error) {
	f.mu.Lock()
	var members []*user.Membership
	for _, m := range f.memberships {
		if m.ProjectID == projectID {
			clone := *m
			members = append(members, &clone)
		}
	}
	f.mu.Unlock()

	var out []*user.ProjectUser
	for _, m := range members {
		u, err := f.users.FindByID(ctx, m.UserID)
		if err != nil || u == nil {
			continue
		}
		pu := &user.ProjectUser{User: *u, RoleID: m.RoleID, MembershipActive: m.IsActive}
		if r, _ := f.roles.FindByID(ctx, projectID, m.RoleID); r != nil {
			pu.RoleName = r.Name
		}
		out = append(out, pu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })

	opts = opts.Normalize()
	total := len(out)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (f *MembershipRepo) SetActive(_ context.Context, projectID kernel.ProjectID, userID kernel.UserID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey(projectID, userID)]
	if !ok {
		return user.ErrNotInProject()
	}
	m.IsActive = active
	return nil
}

// TokenRepo is an in-memory auth.TokenRepository. Revoke is conditional, the
// same way the SQL implementation is.
type TokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{tokens: make(map[string]*auth.RefreshToken)}
}

func (f *TokenRepo) WithTx(*sqlx.Tx) auth.TokenRepository { return f }

func (f *TokenRepo) Create(_ context.Context, t auth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.Token] = &t
	return nil
}

func (f *TokenRepo) FindByToken(_ context.Context, token string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, nil
}

func (f *TokenRepo) Revoke(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Revoked {
		return auth.ErrInvalidRefreshToken()
	}
	t.Revoked = true
	return nil
}

func (f *TokenRepo) RevokeAllForUser(_ context.Context, userID kernel.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *TokenRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// ActiveTokenCount reports how many unrevoked tokens a user holds.
func (f *TokenRepo) ActiveTokenCount(userID kernel.UserID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

// CodeRepo is an in-memory verification.CodeRepository. MarkUsed is
// conditional, the same way the SQL implementation is.
type CodeRepo struct {
	mu    sync.Mutex
	codes map[string]*verification.Code
}

func NewCodeRepo() *CodeRepo {
	return &CodeRepo{codes: make(map[string]*verification.Code)}
}

func (f *CodeRepo) WithTx(*sqlx.Tx) verification.CodeRepository { return f }

func (f *CodeRepo) Create(_ context.Context, c verification.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[c.ID] = &c
	return nil
}

func (f *CodeRepo) FindByCode(_ context.Context, code string, purpose verification.Purpose) (*verification.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *verification.Code
	for _, c := range f.codes {
		if c.Code == code && c.Purpose == purpose {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (f *CodeRepo) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[id]
	if !ok || c.Used {
		return verification.ErrAlreadyUsed()
	}
	c.Used = true
	return nil
}

func (f *CodeRepo) InvalidateForUser(_ context.Context, userID kernel.UserID, purpose verification.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.UserID == userID && c.Purpose == purpose {
			c.Used = true
		}
	}
	return nil
}

func (f *CodeRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// LatestCode returns the newest unused code for a user and purpose, or nil.
func (f *CodeRepo) LatestCode(userID kernel.UserID, purpose verification.Purpose) *verification.Code {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *verification.Code
	for _, c := range f.codes {
		if c.UserID == userID && c.Purpose == purpose && !c.Used {
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil
	}
	clone := *latest
	return &clone
}

// Mailer records sent emails instead of delivering them.
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

// SentMail is one recorded delivery.
type SentMail struct {
	To      string
	Code    string
	Purpose verification.Purpose
}

func NewMailer() *Mailer { return &Mailer{} }

func (m *Mailer) SendVerificationEmail(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Code: code, Purpose: verification.PurposeEmailVerification})
	return nil
}

func (m *Mailer) SendPasswordResetEmail(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Code: code, Purpose: verification.PurposePasswordReset})
	return nil
}

// SentCount returns the number of recorded deliveries.
func (m *Mailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
