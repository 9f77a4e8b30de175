package tickerguard

import (
	"regexp"
	"strings"
	"unicode"
)

// Class-share suffix: trailing dot plus one or two letters ("BRK.B",
// "GAB.Q.X"). Applied repeatedly so stacked suffixes collapse.
var classSuffixPattern = regexp.MustCompile(`\.[A-Za-z]{1,2}$`)

// Anything that is not alphanumeric or a hyphen is dropped after
// suffix stripping. Legitimate internal hyphens ("BRK-B") survive.
var invalidCharPattern = regexp.MustCompile(`[^A-Z0-9\-]`)

var validCharsPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// MaxTickerLength is the longest identifier accepted as a listed ticker.
const MaxTickerLength = 6

// Normalize converts a raw ticker-like string to canonical form:
// uppercase, class-share suffixes stripped, non-alphanumeric characters
// removed except hyphen. Normalize is idempotent.
func Normalize(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))

	for {
		stripped := classSuffixPattern.ReplaceAllString(t, "")
		if stripped == t {
			break
		}
		t = stripped
	}

	return invalidCharPattern.ReplaceAllString(t, "")
}

// Validate checks whether an identifier is a plausible listed ticker.
// Returns ok plus a reject reason. Checks run in a fixed order: empty,
// length, mutual-fund pattern, charset, leading digit. Blacklist
// membership is checked separately by the guard.
func Validate(ticker string) (bool, string) {
	if ticker == "" {
		return false, "empty ticker"
	}
	if len(ticker) > MaxTickerLength {
		return false, "ticker too long"
	}
	if isMutualFund(ticker) {
		return false, "mutual fund"
	}
	if !validCharsPattern.MatchString(ticker) {
		return false, "invalid characters"
	}
	if unicode.IsDigit(rune(ticker[0])) {
		return false, "leading digit"
	}
	return true, ""
}

// isMutualFund applies the mutual-fund heuristic: five characters
// ending in X, Y or Z with an alphabetic second-to-last character.
// This is a heuristic, not a classifier; occasional false positives
// are accepted.
func isMutualFund(ticker string) bool {
	if len(ticker) != 5 {
		return false
	}
	last := ticker[4]
	if last != 'X' && last != 'Y' && last != 'Z' {
		return false
	}
	return unicode.IsLetter(rune(ticker[3]))
}
