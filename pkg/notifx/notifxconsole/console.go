// Package notifxconsole logs emails instead of sending them. Development only.
package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/Abraxas-365/sentinel/pkg/notifx"
)

type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func (p *Provider) SendEmail(_ context.Context, msg notifx.EmailMessage) error {
	logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("console email (dev mode)")

	if msg.HTMLBody != "" {
		logx.Debugf("console email body:\n%s", msg.HTMLBody)
	}
	return nil
}
