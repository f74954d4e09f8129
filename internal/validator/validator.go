package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidEmailDomain = errors.New("invalid email domain")
	ErrInvalidName        = errors.New("name must be between 2 and 80 characters")
	ErrInvalidPassword    = errors.New("password must have at least 8 characters")
	ErrInvalidHost        = errors.New("invalid host")
)

var (
	emailRegex  = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	domainRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,24}$`)
	hostRegex   = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]{0,251}[a-zA-Z0-9])?$`)
)

// ValidateEmail checks the address shape and that the domain is a dotted
// host name with an alphabetic top-level label.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	if !domainRegex.MatchString(domain) {
		return ErrInvalidEmailDomain
	}
	return nil
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 80 {
		return ErrInvalidName
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateHost(host string) error {
	if !hostRegex.MatchString(host) {
		return ErrInvalidHost
	}
	return nil
}
