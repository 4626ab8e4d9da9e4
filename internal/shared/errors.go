package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage maps internal errors onto a message that can be shown to
// end users without leaking infrastructure detail.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Data tidak ditemukan."
	case errors.Is(err, ErrInvalidCredentials):
		return "Username atau password tidak valid."
	default:
		return "Terjadi kesalahan pada server."
	}
}
