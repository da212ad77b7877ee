// Package ptrx has the pointer helpers used for optional fields in partial
// update payloads.
package ptrx

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// DerefOr returns the value behind p, or fallback when p is nil.
func DerefOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
