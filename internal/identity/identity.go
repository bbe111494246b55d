// Package identity canonicalizes the (email, phone) pair that identifies a
// candidate across exam sessions.
package identity

import (
	"errors"
	"strings"
	"unicode"
)

// PhoneDigits is the length of a normalized phone number.
const PhoneDigits = 10

var (
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidPhone  = errors.New("phone number must be exactly 10 digits")
)

// Identity is a normalized (email, phone) pair.
type Identity struct {
	Email string
	Phone string
}

// Normalize canonicalizes both halves of an identity. It never fails; call
// Validate before creating anything keyed on the result.
func Normalize(email, phone string) Identity {
	return Identity{
		Email: NormalizeEmail(email),
		Phone: NormalizePhone(phone),
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips every non-digit and keeps the trailing PhoneDigits
// digits, which drops country-code prefixes such as +91.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) > PhoneDigits {
		digits = digits[len(digits)-PhoneDigits:]
	}
	return digits
}

// Validate reports whether the identity may key a new session.
func (i Identity) Validate() error {
	if i.Email == "" || strings.IndexFunc(i.Email, unicode.IsSpace) >= 0 {
		return ErrEmailRequired
	}
	if len(i.Phone) != PhoneDigits {
		return ErrInvalidPhone
	}
	return nil
}

// Key returns a stable string form, suitable for map keys and logs.
func (i Identity) Key() string {
	return i.Email + "|" + i.Phone
}
