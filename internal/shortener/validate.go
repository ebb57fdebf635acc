package shortener

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/idna"
)

// MaxURLLength bounds the length of a submitted URL.
const MaxURLLength = 2048

var validate = validator.New()

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
}

// ValidateURL checks that raw is an absolute URL with a supported scheme and a
// well-formed host. raw is returned unchanged; surrounding or embedded
// whitespace is an error, as is anything else wrapping ErrInvalidURL.
func ValidateURL(raw string) (string, error) {
	if len(raw) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	if i := strings.IndexFunc(raw, isSpaceOrControl); i >= 0 {
		return "", fmt.Errorf("%w: whitespace or control character at offset %d", ErrInvalidURL, i)
	}

	if err := validate.Var(raw, "required,url"); err != nil {
		return "", fmt.Errorf("%w: %q is not an absolute url", ErrInvalidURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if err := validateHost(u.Hostname()); err != nil {
		return "", err
	}

	return raw, nil
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	if net.ParseIP(host) != nil || strings.EqualFold(host, "localhost") {
		return nil
	}

	// Digits and dots only is an IPv4 address or nothing.
	if strings.Trim(host, "0123456789.") == "" {
		return fmt.Errorf("%w: invalid ip address %q", ErrInvalidURL, host)
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil {
		return fmt.Errorf("%w: malformed host %q", ErrInvalidURL, host)
	}

	// Bare single-label names are rejected, a dotted domain is required.
	if !strings.Contains(ascii, ".") {
		return fmt.Errorf("%w: host %q has no domain", ErrInvalidURL, host)
	}

	if err := validate.Var(ascii, "hostname_rfc1123"); err != nil {
		return fmt.Errorf("%w: malformed host %q", ErrInvalidURL, host)
	}

	return nil
}
