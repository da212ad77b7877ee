// Package notifx is the outbound email layer: a provider-agnostic client with
// a registry of named HTML templates. Providers live in subpackages
// (notifxses for AWS SES, notifxconsole for development).
package notifx

import "context"

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// Client sends plain or templated emails through the configured provider.
type Client struct {
	provider  EmailSender
	from      string
	templates *TemplateRegistry
}

// NewClient creates a client with a default From address.
func NewClient(provider EmailSender, from string) *Client {
	return &Client{
		provider:  provider,
		from:      from,
		templates: NewTemplateRegistry(),
	}
}

// SendEmail validates and sends msg through the provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return registry.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if msg.Subject == "" {
		return registry.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.from
	}
	return c.provider.SendEmail(ctx, msg)
}

// RegisterTemplate parses and stores a named template.
func (c *Client) RegisterTemplate(name, tmpl string) error {
	return c.templates.Register(name, tmpl)
}

// SendTemplatedEmail renders the named template into the HTML body and sends.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateName string, data any, msg EmailMessage) error {
	body, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}
	msg.HTMLBody = body
	return c.SendEmail(ctx, msg)
}
