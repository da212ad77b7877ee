// Package iam hosts the identity and access management bounded contexts:
// admin keys, projects (tenants), users, roles, token issuance and one-time
// codes. This file holds the errors shared by the middleware layer.
package iam

import (
	"net/http"

	"github.com/Abraxas-365/sentinel/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeForbidden, http.StatusForbidden, "Access denied")
)

func ErrUnauthorized() *errx.Error { return ErrRegistry.New(CodeUnauthorized) }
func ErrAccessDenied() *errx.Error { return ErrRegistry.New(CodeAccessDenied) }

// AdminRoleName is the canonical per-project administrator role. It is the
// only role auto-created when referenced before it exists.
const AdminRoleName = "admin"
