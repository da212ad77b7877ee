// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, mail) and composes
// the iam container. This is the only place that knows about ALL modules.
package main

import (
	"context"
	"os"
	"time"

	"github.com/Abraxas-365/sentinel/migrations"
	"github.com/Abraxas-365/sentinel/pkg/config"
	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/sentinel/pkg/jobx"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/Abraxas-365/sentinel/pkg/notifx"
	"github.com/Abraxas-365/sentinel/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/sentinel/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed iam container.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB    *sqlx.DB
	Redis *redis.Client
	Mail  *notifx.Client

	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, mail
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	if c.Config.Database.Migrate {
		if err := databasex.Migrate(db, migrations.FS, "."); err != nil {
			logx.Fatalf("Failed to run migrations: %v", err)
		}
		logx.Info("  ✅ Migrations applied")
	}

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Warnf("Redis unavailable: %v (rate limiting disabled)", err)
		c.Redis = nil
	} else {
		logx.Info("  ✅ Redis connected")
	}

	// 3. Mail
	c.initMail()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMail() {
	switch c.Config.Notif.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notif.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewProvider(ses.NewFromConfig(awsCfg))
		c.Mail = notifx.NewClient(provider, c.Config.Notif.FromAddress)
		logx.Infof("  ✅ SES mail provider configured (region: %s)", c.Config.Notif.AWSRegion)

	case "console":
		c.Mail = notifx.NewClient(notifxconsole.NewProvider(), c.Config.Notif.FromAddress)
		logx.Info("  ✅ Console mail provider configured (emails are logged, not sent)")

	default:
		logx.Fatalf("Unknown NOTIF_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notif.Provider)
	}
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	iamc, err := iamcontainer.New(iamcontainer.Deps{
		DB:    c.DB,
		Redis: c.Redis,
		Cfg:   c.Config,
		Mail:  c.Mail,
	})
	if err != nil {
		logx.Fatalf("Failed to initialize iam container: %v", err)
	}
	c.IAM = iamc
	logx.Info("  ✅ IAM module initialized")
}

// EnsureBootstrapKey creates the first admin key when the store is empty and
// prints it once. This is the only time the plaintext ever leaves the process.
func (c *Container) EnsureBootstrapKey(ctx context.Context) {
	created, err := c.IAM.AdminKeys.EnsureBootstrapKey(ctx)
	if err != nil {
		logx.Fatalf("Failed to ensure bootstrap admin key: %v", err)
	}
	if created == nil {
		return
	}

	logx.Warn("=" + repeatString("=", 60))
	logx.Warn("🔑 BOOTSTRAP ADMIN KEY CREATED")
	logx.Warnf("   %s", created.Key)
	logx.Warn("   Save this key securely. It will not be shown again.")
	logx.Warn("=" + repeatString("=", 60))
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the recurring sweeps until ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	runner := jobx.NewRunner()

	runner.Register("purge-expired-refresh-tokens", time.Hour, func(ctx context.Context) error {
		n, err := c.IAM.Auth.PurgeExpiredTokens(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logx.Infof("purged %d expired refresh tokens", n)
		}
		return nil
	})

	runner.Register("purge-expired-one-time-codes", time.Hour, func(ctx context.Context) error {
		n, err := c.IAM.Verification.PurgeExpiredCodes(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logx.Infof("purged %d expired one-time codes", n)
		}
		return nil
	})

	go func() {
		if err := runner.Start(ctx); err != nil {
			logx.WithError(err).Error("background runner stopped")
		}
	}()
	logx.Info("🔄 Background sweeps started")
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func repeatString(s string, count int) string {
	result := ""
	for i := 0; i < count; i++ {
		result += s
	}
	return result
}
