// Package verificationsrv implements the one-time code flows: email
// verification and password reset.
package verificationsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/asyncx"
	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Service struct {
	run             databasex.TxRunner
	codes           verification.CodeRepository
	users           user.Repository
	tokens          auth.TokenRepository
	mailer          verification.Mailer
	hasher          *secrets.Hasher
	clock           kernel.Clock
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewService(
	run databasex.TxRunner,
	codes verification.CodeRepository,
	users user.Repository,
	tokens auth.TokenRepository,
	mailer verification.Mailer,
	hasher *secrets.Hasher,
	clock kernel.Clock,
	verificationTTL, resetTTL time.Duration,
) *Service {
	return &Service{
		run:             run,
		codes:           codes,
		users:           users,
		tokens:          tokens,
		mailer:          mailer,
		hasher:          hasher,
		clock:           clock,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
	}
}

// RequestEmailVerification issues a verification code for a known user and
// mails it. Satisfies the registration flow's verifier port.
func (s *Service) RequestEmailVerification(ctx context.Context, userID kernel.UserID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return verification.ErrUserNotFound()
	}
	if u.EmailVerified {
		return nil
	}
	return s.issueAndSend(ctx, u, verification.PurposeEmailVerification, s.verificationTTL)
}

// RequestEmailVerificationByEmail is the public, enumeration-safe variant: it
// reports success whether or not the email belongs to an account.
func (s *Service) RequestEmailVerificationByEmail(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil || u.EmailVerified {
		return nil
	}
	return s.issueAndSend(ctx, u, verification.PurposeEmailVerification, s.verificationTTL)
}

// VerifyEmail redeems a verification code for the account behind the email
// and marks it verified. The code can be redeemed at most once, and only by
// the account it was issued to.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	if err := verification.AssertFormat(code); err != nil {
		return err
	}
	return s.run(ctx, func(tx *sqlx.Tx) error {
		users := s.users.WithTx(tx)
		u, err := users.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return err
		}
		if u == nil {
			return verification.ErrNotFound()
		}

		codes := s.codes.WithTx(tx)
		c, err := codes.FindByCode(ctx, code, verification.PurposeEmailVerification)
		if err != nil {
			return err
		}
		if c != nil && c.UserID != u.ID {
			return verification.ErrNotFound()
		}
		if err := verification.AssertRedeemable(c, s.clock.Now()); err != nil {
			return err
		}
		if err := codes.MarkUsed(ctx, c.ID); err != nil {
			return err
		}

		u.EmailVerified = true
		u.UpdatedAt = s.clock.Now()
		return users.Update(ctx, *u)
	})
}

// RequestPasswordReset issues a reset code. Enumeration-safe: unknown emails
// report success without sending anything.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	return s.issueAndSend(ctx, u, verification.PurposePasswordReset, s.resetTTL)
}

// ResetPassword redeems a reset code for the account behind the email,
// replaces the password and revokes every refresh token the user holds, all
// in one transaction. A code only redeems against the account it was issued
// to.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := verification.AssertFormat(code); err != nil {
		return err
	}
	if err := user.AssertPasswordStrength(newPassword); err != nil {
		return err
	}

	return s.run(ctx, func(tx *sqlx.Tx) error {
		users := s.users.WithTx(tx)
		u, err := users.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return err
		}
		if u == nil {
			return verification.ErrNotFound()
		}

		codes := s.codes.WithTx(tx)
		c, err := codes.FindByCode(ctx, code, verification.PurposePasswordReset)
		if err != nil {
			return err
		}
		if c != nil && c.UserID != u.ID {
			return verification.ErrNotFound()
		}
		if err := verification.AssertRedeemable(c, s.clock.Now()); err != nil {
			return err
		}
		if err := codes.MarkUsed(ctx, c.ID); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.UpdatedAt = s.clock.Now()
		if err := users.Update(ctx, *u); err != nil {
			return err
		}
		return s.tokens.WithTx(tx).RevokeAllForUser(ctx, u.ID)
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PurgeExpiredCodes deletes one-time codes past their expiry. Run
// periodically.
func (s *Service) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx)
}

// issueAndSend invalidates any outstanding codes for the purpose, stores a
// fresh one and mails it. Delivery is fire-and-forget.
func (s *Service) issueAndSend(ctx context.Context, u *user.User, purpose verification.Purpose, ttl time.Duration) error {
	code, err := secrets.GenerateCode()
	if err != nil {
		return err
	}
	now := s.clock.Now()
	c := verification.Code{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	err = s.run(ctx, func(tx *sqlx.Tx) error {
		codes := s.codes.WithTx(tx)
		if err := codes.InvalidateForUser(ctx, u.ID, purpose); err != nil {
			return err
		}
		return codes.Create(ctx, c)
	})
	if err != nil {
		return err
	}

	email, username := u.Email, u.Username
	asyncx.DoCtx(ctx, func(ctx context.Context) {
		var sendErr error
		if purpose == verification.PurposePasswordReset {
			sendErr = s.mailer.SendPasswordResetEmail(ctx, email, username, code)
		} else {
			sendErr = s.mailer.SendVerificationEmail(ctx, email, username, code)
		}
		if sendErr != nil {
			logx.WithFields(logx.Fields{"error": sendErr, "purpose": string(purpose)}).
				Warn("failed to send one-time code email")
		}
	})
	return nil
}
