package normalizer

import (
	"strings"
	"unicode"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

const (
	// Plausible digit counts for an international number, excluding
	// the leading "+".
	DefaultMinDigits = 9
	DefaultMaxDigits = 15
)

// Rule rewrites a local trunk prefix to an international country code,
// e.g. a leading "0" on an Indonesian number becomes "+62".
type Rule struct {
	TrunkPrefix string
	CountryCode string
}

// DefaultRules covers the Indonesian form responses this tool was
// built for.
func DefaultRules() []Rule {
	return []Rule{{TrunkPrefix: "0", CountryCode: "+62"}}
}

// Normalizer converts raw spreadsheet cells into canonical numbers.
// It is pure: no I/O, no state mutation, identical input always yields
// identical output.
type Normalizer struct {
	rules     []Rule
	minDigits int
	maxDigits int
}

// New builds a normalizer. Zero bounds fall back to the defaults; nil
// rules fall back to DefaultRules.
func New(rules []Rule, minDigits, maxDigits int) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	if minDigits < 1 {
		minDigits = DefaultMinDigits
	}
	if maxDigits < minDigits {
		maxDigits = DefaultMaxDigits
	}
	return &Normalizer{rules: rules, minDigits: minDigits, maxDigits: maxDigits}
}

// Normalize resolves an entry to exactly one of a canonical number or
// a rejection. The function is total: every input lands in one of the
// two shapes.
func (n *Normalizer) Normalize(entry domain.RawEntry) (domain.CanonicalNumber, *domain.RejectedEntry) {
	cleaned, ok := clean(entry.Raw)
	if !ok {
		return "", &domain.RejectedEntry{Entry: entry, Reason: domain.ReasonContainsNonDigitCharacters}
	}

	candidate := cleaned
	hasCode := strings.HasPrefix(cleaned, "+")
	if !hasCode {
		matched := matchRules(n.rules, cleaned)
		switch len(matched) {
		case 0:
			// Length is judged first below; the missing-code verdict
			// only applies to numbers that are otherwise plausible.
		case 1:
			candidate = matched[0].CountryCode + cleaned[len(matched[0].TrunkPrefix):]
			hasCode = true
		default:
			return "", &domain.RejectedEntry{Entry: entry, Reason: domain.ReasonAmbiguousLocalFormat}
		}
	}

	digits := len(strings.TrimPrefix(candidate, "+"))
	if digits < n.minDigits || digits > n.maxDigits {
		return "", &domain.RejectedEntry{Entry: entry, Reason: domain.ReasonMalformedLength}
	}
	if !hasCode {
		return "", &domain.RejectedEntry{Entry: entry, Reason: domain.ReasonMissingCountryCode}
	}
	return domain.CanonicalNumber(candidate), nil
}

// clean strips formatting noise and reports whether what remains is a
// digit string with at most one leading "+". Letters and stray symbols
// disqualify the entry.
func clean(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// formatting noise
		case unicode.IsLetter(r):
			return "", false
		default:
			return "", false
		}
	}
	return b.String(), true
}

func matchRules(rules []Rule, cleaned string) []Rule {
	var matched []Rule
	for _, rule := range rules {
		if rule.TrunkPrefix != "" && strings.HasPrefix(cleaned, rule.TrunkPrefix) {
			matched = append(matched, rule)
		}
	}
	return matched
}
