package messaging

import "strings"

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	digits := digitsOnly(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// SamePhone compares two numbers ignoring formatting.
func SamePhone(a, b string) bool {
	na, nb := NormalizeE164(a), NormalizeE164(b)
	return na != "" && na == nb
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
