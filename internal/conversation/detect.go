package conversation

import (
	"regexp"
	"strings"

	"github.com/wolfman30/sms-booking-bot/internal/location"
)

var unsafeTerms = []string{"bbs", "bareback", "bb", "no condom", "raw"}

var profanityWords = []string{
	"fuck", "shit", "bitch", "cunt", "bastard", "asshole", "prick",
	"dick", "cock", "pussy", "whore", "slut", "damn", "hell",
}

var cancellationKeywords = []string{
	"cancel", "can't make", "cannot make", "need to cancel",
	"have to cancel", "not coming", "won't make it",
	"reschedule", "change booking",
}

var (
	unsafePatterns    = wordPatterns(unsafeTerms)
	profanityPatterns = wordPatterns(profanityWords)

	yesWord      = regexp.MustCompile(`(?i)\byes\b`)
	fillerWords  = regexp.MustCompile(`(?i)\b(ok|okay|yeah|yep|sure|please|pls|thanks|thank you|thankyou|thx|cheers)\b`)
	spaceRun     = regexp.MustCompile(`\s+`)
	fillerSingle = map[string]bool{
		"ok": true, "yeah": true, "yep": true, "sure": true,
		"please": true, "thanks": true, "thank you": true, "cheers": true,
	}
)

func wordPatterns(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(term)+`\b`))
	}
	return out
}

// IsUnsafeRequest reports a whole-word hit on the unsafe lexicon.
func IsUnsafeRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range unsafePatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// HasProfanity needs at least two distinct words from the list.
func HasProfanity(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, re := range profanityPatterns {
		if re.MatchString(lower) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// IsCancellation is a substring match on the cancellation phrases.
func IsCancellation(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range cancellationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsYes matches the word yes in any case.
func IsYes(text string) bool {
	return yesWord.MatchString(text)
}

// IsDepositRequest is the bare DEPOSIT keyword.
func IsDepositRequest(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "DEPOSIT")
}

// EnquiryText returns the text after an ENQUIRY prefix.
func EnquiryText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len("ENQUIRY") || !strings.EqualFold(trimmed[:len("ENQUIRY")], "ENQUIRY") {
		return "", false
	}
	return strings.TrimSpace(trimmed[len("ENQUIRY"):]), true
}

// ExtractName strips yes and acknowledgement words from a confirmation and
// returns the title-cased remainder, or "" when nothing usable is left.
func ExtractName(text string) string {
	name := yesWord.ReplaceAllString(strings.TrimSpace(text), "")
	name = strings.TrimSpace(spaceRun.ReplaceAllString(name, " "))
	name = strings.Trim(name, ".,!? ")
	if fillerSingle[strings.ToLower(name)] {
		return ""
	}
	name = fillerWords.ReplaceAllString(name, "")
	name = strings.TrimSpace(spaceRun.ReplaceAllString(name, " "))
	name = strings.Trim(name, ".,!? ")
	if len([]rune(name)) < 2 {
		return ""
	}
	return location.TitleCase(name)
}
