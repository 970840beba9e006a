package conversation

import (
	"regexp"
	"strings"
)

var cardCandidate = regexp.MustCompile(`(?:\d[ -]?){13,19}`)

// RedactCardNumbers masks anything that passes a Luhn check as a card number,
// keeping the last four digits. Clients sometimes text card details when asked
// for a deposit and those must not reach the message log.
func RedactCardNumbers(text string) string {
	return cardCandidate.ReplaceAllStringFunc(text, func(match string) string {
		digits := make([]byte, 0, len(match))
		for i := 0; i < len(match); i++ {
			if c := match[i]; c >= '0' && c <= '9' {
				digits = append(digits, c)
			}
		}
		if len(digits) < 13 || !luhn(digits) {
			return match
		}
		trailing := ""
		if strings.HasSuffix(match, " ") || strings.HasSuffix(match, "-") {
			trailing = match[len(match)-1:]
		}
		return "[card ending " + string(digits[len(digits)-4:]) + "]" + trailing
	})
}

func luhn(digits []byte) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			if n *= 2; n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}
