// Package phone matches a submitted phone number against the one stored on an order.
package phone

import (
	"strings"

	"storefront/internal/domain/model"
)

// DefaultCountryCode replaces a leading national trunk prefix.
const DefaultCountryCode = "62"

// Normalize keeps digits only and rewrites a leading 0 to countryCode,
// so "0812-345-6789", "+62 812 345 6789" and "62812 3456789" compare equal.
func Normalize(raw string, countryCode string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if strings.HasPrefix(digits, "0") {
		digits = countryCode + digits[1:]
	}
	return digits
}

// Verify reports whether submitted matches the order's phone. It does not
// look at expiry; callers check the visibility policy first.
func Verify(o *model.Order, submitted string, countryCode string) bool {
	if o == nil {
		return false
	}
	stored := Normalize(o.CustomerPhone, countryCode)
	given := Normalize(submitted, countryCode)
	if stored == "" || given == "" {
		return false
	}
	return stored == given
}
