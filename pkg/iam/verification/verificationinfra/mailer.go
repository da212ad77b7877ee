package verificationinfra

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/iam/verification"
	"github.com/Abraxas-365/sentinel/pkg/notifx"
)

const (
	tmplVerification  = "email_verification"
	tmplPasswordReset = "password_reset"
)

const verificationHTML = `
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Verify your email</h2>
  <p>Hi {{.Username}},</p>
  <p>Use this code to verify your email address. It expires in 24 hours.</p>
  <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.Code}}</p>
  <p>If you did not create an account, you can ignore this email.</p>
</div>`

const passwordResetHTML = `
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Reset your password</h2>
  <p>Hi {{.Username}},</p>
  <p>Use this code to reset your password. It expires in 1 hour.</p>
  <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.Code}}</p>
  <p>If you did not request a reset, you can ignore this email.</p>
</div>`

// NotifxMailer renders and sends the code-bearing emails through notifx.
type NotifxMailer struct {
	client *notifx.Client
}

func NewNotifxMailer(client *notifx.Client) (verification.Mailer, error) {
	if err := client.RegisterTemplate(tmplVerification, verificationHTML); err != nil {
		return nil, err
	}
	if err := client.RegisterTemplate(tmplPasswordReset, passwordResetHTML); err != nil {
		return nil, err
	}
	return &NotifxMailer{client: client}, nil
}

type codeEmailData struct {
	Username string
	Code     string
}

func (m *NotifxMailer) SendVerificationEmail(ctx context.Context, to, username, code string) error {
	return m.client.SendTemplatedEmail(ctx, tmplVerification, codeEmailData{Username: username, Code: code}, notifx.EmailMessage{
		To:      []string{to},
		Subject: "Verify your email address",
	})
}

func (m *NotifxMailer) SendPasswordResetEmail(ctx context.Context, to, username, code string) error {
	return m.client.SendTemplatedEmail(ctx, tmplPasswordReset, codeEmailData{Username: username, Code: code}, notifx.EmailMessage{
		To:      []string{to},
		Subject: "Reset your password",
	})
}
