// Package safety holds the crisis-language screen that runs before any message
// is forwarded to the model.
package safety

import "strings"

// CrisisMessage is the only reply sent when crisis language is detected.
const CrisisMessage = "I hear that you're in a lot of pain, " +
	"and it's important to talk to someone who can help. " +
	"Please reach out to the 988 Suicide & Crisis Lifeline " +
	"(call or text 988) or contact emergency services (911). " +
	"You don't have to go through this alone."

// crisisKeywords are lowercase substrings. Matching is plain containment, not
// word-boundary, so false positives are accepted.
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"self-harm",
	"hurt myself",
	"want to die",
	"not worth living",
}

// CrisisKeywords returns a copy of the keyword list in its fixed order.
func CrisisKeywords() []string {
	out := make([]string, len(crisisKeywords))
	copy(out, crisisKeywords)
	return out
}

// ContainsCrisisLanguage reports whether message contains any crisis keyword,
// ignoring case.
func ContainsCrisisLanguage(message string) bool {
	_, ok := MatchCrisisKeyword(message)
	return ok
}

// MatchCrisisKeyword returns the first keyword found in message.
func MatchCrisisKeyword(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
