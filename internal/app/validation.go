package app

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"florist/internal/domain"
)

const (
	maxEmailLength    = 255
	minPasswordLength = 6
	maxPasswordLength = 100
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AuthError wraps a failed call to the identity provider.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Message is the text shown to the customer.
func (e *AuthError) Message() string {
	switch {
	case errors.Is(e.Err, ErrAlreadyRegistered):
		return "This email is already registered. Please log in instead."
	case errors.Is(e.Err, ErrInvalidCredentials):
		return "Invalid email or password."
	case e.Op == "signup":
		return "Could not create your account. Please try again."
	default:
		return "Could not sign you in. Please try again."
	}
}

// SignupForm is submitted to create an account.
type SignupForm struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginForm is submitted to sign in.
type LoginForm struct {
	Email    string
	Password string
}

// hasDottedDomain reports whether the part after the last @ has at least two
// non-empty labels.
func hasDottedDomain(email string) bool {
	domainPart := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(domainPart, ".") &&
		!strings.HasPrefix(domainPart, ".") &&
		!strings.HasSuffix(domainPart, ".") &&
		!strings.Contains(domainPart, "..")
}

func validateEmail(v *ValidationError, email string) string {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		v.add("email", "Email is required")
	case len(email) > maxEmailLength:
		v.add("email", fmt.Sprintf("Email must be less than %d characters", maxEmailLength))
	default:
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email || !hasDottedDomain(email) {
			v.add("email", "Invalid email address")
		}
	}
	return email
}

// Validate checks the signup rules and returns the trimmed email.
func (f SignupForm) Validate() (string, error) {
	var v ValidationError
	email := validateEmail(&v, f.Email)

	switch n := len(f.Password); {
	case n < minPasswordLength:
		v.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	case n > maxPasswordLength:
		v.add("password", fmt.Sprintf("Password must be less than %d characters", maxPasswordLength))
	}
	if f.Password != f.ConfirmPassword {
		v.add("confirmPassword", "Passwords don't match")
	}
	return email, v.orNil()
}

// Validate checks the login rules and returns the trimmed email.
func (f LoginForm) Validate() (string, error) {
	var v ValidationError
	email := validateEmail(&v, f.Email)
	if f.Password == "" {
		v.add("password", "Password is required")
	}
	return email, v.orNil()
}

func validatePayment(d domain.PaymentDetails) error {
	var v ValidationError
	fields := []struct {
		name, value, label string
	}{
		{"fullName", d.FullName, "Full name"},
		{"address", d.Address, "Address"},
		{"city", d.City, "City"},
		{"zipCode", d.ZipCode, "ZIP code"},
		{"cardNumber", d.CardNumber, "Card number"},
		{"expiryDate", d.ExpiryDate, "Expiry date"},
		{"cvv", d.CVV, "CVV"},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			v.add(f.name, f.label+" is required")
		}
	}
	return v.orNil()
}
