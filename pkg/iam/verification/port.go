package verification

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// CodeRepository persists one-time codes. Find* methods return (nil, nil) on
// absence.
//
// MarkUsed must be conditional: it only flips codes that are still unused and
// reports ErrAlreadyUsed when nothing changed, so a code can be redeemed at
// most once even under concurrent attempts.
type CodeRepository interface {
	Create(ctx context.Context, c Code) error
	FindByCode(ctx context.Context, code string, purpose Purpose) (*Code, error)
	MarkUsed(ctx context.Context, id string) error
	InvalidateForUser(ctx context.Context, userID kernel.UserID, purpose Purpose) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) CodeRepository
}

// Mailer delivers the code-bearing emails.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, code string) error
	SendPasswordResetEmail(ctx context.Context, to, username, code string) error
}
