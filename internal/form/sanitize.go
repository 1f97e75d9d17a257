// Package form binds address inputs to pincode resolvers and gates submission.
package form

import "strings"

// postalCodeLength is the length of an Indian pincode.
const postalCodeLength = 6

// SanitizePostalCode keeps ASCII digits only and caps the result at six.
func SanitizePostalCode(raw string) string {
	var b strings.Builder
	b.Grow(postalCodeLength)
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == postalCodeLength {
			break
		}
	}
	return b.String()
}
