// Package iamcontainer wires the iam bounded contexts together. It is the
// single place where repositories, services and handlers meet.
package iamcontainer

import (
	"github.com/Abraxas-365/sentinel/pkg/config"
	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeyapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeyinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeysrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/role/roleapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/role/roleinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/role/rolesrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/user/userapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification/verificationapi"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification/verificationinfra"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification/verificationsrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/limitx"
	"github.com/Abraxas-365/sentinel/pkg/notifx"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Deps are the external resources the container needs.
type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config
	Mail  *notifx.Client
}

// Container holds every wired service, handler and middleware.
type Container struct {
	AdminKeys    *adminkeysrv.Service
	Projects     *projectsrv.Service
	Bootstrap    *projectsrv.BootstrapService
	Roles        *rolesrv.Service
	Users        *usersrv.Service
	Auth         *authsrv.Service
	Verification *verificationsrv.Service

	Middleware *authapi.Middleware
	LoginLimit limitx.Limiter
	CodeLimit  limitx.Limiter

	AdminKeyHandlers     *adminkeyapi.Handlers
	ProjectHandlers      *projectapi.Handlers
	RoleHandlers         *roleapi.Handlers
	UserHandlers         *userapi.Handlers
	AuthHandlers         *authapi.Handlers
	VerificationHandlers *verificationapi.Handlers
}

// New builds the full object graph.
func New(deps Deps) (*Container, error) {
	cfg := deps.Cfg
	clock := kernel.SystemClock{}
	hasher := secrets.NewHasher(cfg.Auth.BcryptCost)

	adminKeyRepo := adminkeyinfra.NewPostgresRepository(deps.DB)
	projectRepo := projectinfra.NewPostgresRepository(deps.DB)
	roleRepo := roleinfra.NewPostgresRepository(deps.DB)
	userRepo := userinfra.NewPostgresRepository(deps.DB)
	membershipRepo := userinfra.NewPostgresMembershipRepository(deps.DB)
	tokenRepo := authinfra.NewPostgresTokenRepository(deps.DB)
	codeRepo := verificationinfra.NewPostgresCodeRepository(deps.DB)

	mailer, err := verificationinfra.NewNotifxMailer(deps.Mail)
	if err != nil {
		return nil, err
	}

	signer := authsrv.NewJWTSigner([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, clock)

	run := databasex.Runner(deps.DB)

	adminKeys := adminkeysrv.NewService(adminKeyRepo, hasher, clock)
	projects := projectsrv.NewService(projectRepo, hasher, clock)
	bootstrap := projectsrv.NewBootstrapService(run, projectRepo, userRepo, membershipRepo, roleRepo, hasher, clock)
	roles := rolesrv.NewService(roleRepo, clock)
	users := usersrv.NewService(run, userRepo, membershipRepo, roleRepo, tokenRepo, hasher, clock)
	authSvc := authsrv.NewService(run, userRepo, membershipRepo, roleRepo, tokenRepo, signer, hasher, clock, cfg.Auth.RefreshTokenTTL)
	verificationSvc := verificationsrv.NewService(run, codeRepo, userRepo, tokenRepo, mailer, hasher, clock,
		cfg.Auth.VerificationTTL, cfg.Auth.ResetTTL)

	users.SetVerifier(verificationSvc)

	var loginLimit, codeLimit limitx.Limiter
	if deps.Redis != nil {
		loginLimit = limitx.NewRedisLimiter(deps.Redis, "login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		codeLimit = limitx.NewRedisLimiter(deps.Redis, "code", cfg.Auth.CodeRateLimit, cfg.Auth.CodeRateWindow)
	} else {
		loginLimit = limitx.NopLimiter{}
		codeLimit = limitx.NopLimiter{}
	}

	return &Container{
		AdminKeys:    adminKeys,
		Projects:     projects,
		Bootstrap:    bootstrap,
		Roles:        roles,
		Users:        users,
		Auth:         authSvc,
		Verification: verificationSvc,

		Middleware: authapi.NewMiddleware(adminKeys, projects, signer),
		LoginLimit: loginLimit,
		CodeLimit:  codeLimit,

		AdminKeyHandlers:     adminkeyapi.NewHandlers(adminKeys),
		ProjectHandlers:      projectapi.NewHandlers(projects, bootstrap),
		RoleHandlers:         roleapi.NewHandlers(roles),
		UserHandlers:         userapi.NewHandlers(users),
		AuthHandlers:         authapi.NewHandlers(authSvc),
		VerificationHandlers: verificationapi.NewHandlers(verificationSvc),
	}, nil
}
