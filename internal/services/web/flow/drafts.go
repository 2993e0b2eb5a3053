package flow

import (
	"strings"

	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
)

// Validation messages shown without contacting the backend.
const (
	MessageFieldsRequired = "All fields are required."
	MessageOTPFormat      = "Enter the 6-digit code from your email."
)

// OTPLength is the exact number of digits a code must have.
const OTPLength = 6

// SignupDraft is a submitted signup form.
type SignupDraft struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Normalize trims the identity fields. Passwords are kept verbatim.
func (d SignupDraft) Normalize() SignupDraft {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.TrimSpace(d.Email)
	return d
}

// Validate requires every field to be non-empty.
func (d SignupDraft) Validate() error {
	d = d.Normalize()
	if d.FirstName == "" || d.LastName == "" || d.Email == "" || d.Password == "" {
		return apperrors.EK(apperrors.KindInvalidInput, "error.fields_required", MessageFieldsRequired)
	}
	return nil
}

// LoginDraft is a submitted login form.
type LoginDraft struct {
	Email    string
	Password string
}

// Normalize trims the email. Passwords are kept verbatim.
func (d LoginDraft) Normalize() LoginDraft {
	d.Email = strings.TrimSpace(d.Email)
	return d
}

// Validate requires both fields to be non-empty.
func (d LoginDraft) Validate() error {
	d = d.Normalize()
	if d.Email == "" || d.Password == "" {
		return apperrors.EK(apperrors.KindInvalidInput, "error.fields_required", MessageFieldsRequired)
	}
	return nil
}

// NormalizeOTP strips everything but ASCII digits and caps the result at
// OTPLength. ok is true only when exactly OTPLength digits remain.
func NormalizeOTP(raw string) (code string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == OTPLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	code = b.String()
	return code, len(code) == OTPLength
}
