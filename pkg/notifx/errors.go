package notifx

import "github.com/Abraxas-365/sentinel/pkg/errx"

var registry = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed       = registry.Register("SEND_FAILED", errx.TypeExternal, 502, "Failed to send email")
	ErrInvalidMessage   = registry.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid email message")
	ErrTemplateNotFound = registry.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, 404, "Email template not found")
	ErrTemplateParse    = registry.Register("TEMPLATE_PARSE", errx.TypeValidation, 400, "Failed to parse email template")
	ErrTemplateRender   = registry.Register("TEMPLATE_RENDER", errx.TypeInternal, 500, "Failed to render email template")
)

// NewSendFailed wraps a provider error into the send-failed code. Exported for
// provider subpackages.
func NewSendFailed(cause error) *errx.Error {
	return registry.NewWithCause(ErrSendFailed, cause)
}
