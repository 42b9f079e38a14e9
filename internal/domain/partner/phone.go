package partner

import (
	"regexp"
	"strings"
)

// CountryPrefix is the international dialing prefix stripped during
// normalization. Numbers arrive either from WhatsApp (E.164-ish, with the
// prefix) or from Brains account descriptions (freeform local text).
const CountryPrefix = "961"

// CanonicalSuffixLen is the number of trailing digits compared when an exact
// canonical match fails. Two sources that disagree on country code or leading
// zero still share the subscriber tail.
const CanonicalSuffixLen = 8

// NormalizePhone converts a heterogeneous phone representation into the
// canonical local-dialing key used as the customer identity. It is pure and
// total: input that matches no known shape is returned cleaned but otherwise
// unchanged, so the caller can still widen the lookup instead of dropping
// the message.
func NormalizePhone(raw string) string {
	cleaned := cleanPhone(raw)
	digits := strings.TrimPrefix(cleaned, "+")

	switch {
	case strings.HasPrefix(digits, CountryPrefix) && len(digits) >= len(CountryPrefix)+7:
		return ensureLeadingZero(digits[len(CountryPrefix):])
	case strings.HasPrefix(digits, "0") && len(digits) >= 8 && len(digits) <= 9:
		// Already local form: 0 + 7-8 subscriber digits.
		return digits
	case len(digits) >= 7 && len(digits) <= 8:
		// Bare subscriber number without the leading zero.
		return "0" + digits
	default:
		return cleaned
	}
}

// cleanPhone strips everything except digits and a leading plus sign.
func cleanPhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ensureLeadingZero(digits string) string {
	if strings.HasPrefix(digits, "0") {
		return digits
	}
	return "0" + digits
}

// PhoneTail returns the trailing n digits of a canonical phone, or the whole
// value when it is shorter. Used by the suffix-fallback lookup.
func PhoneTail(phone string, n int) string {
	digits := strings.TrimPrefix(cleanPhone(phone), "+")
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// Brains embeds phone numbers inline in account descriptions: a country-code
// run, a contiguous 8-digit run, or grouped 2+3+3 with optional
// slash/space/dash separators.
var embeddedPhonePattern = regexp.MustCompile(`961\d{7,8}|\d{8}|\d{2}[\s/-]?\d{3}[\s/-]?\d{3}|\d{3}[\s/-]?\d{3}`)

// ExtractPhones scans free text for embedded phone numbers and returns them
// normalized and deduplicated, in order of appearance. The first match is
// authoritative for identity; the rest are acceptable alternate lookup keys.
// A candidate abutting further digits is part of a longer number (an invoice
// or account reference) and is not a phone.
func ExtractPhones(text string) []string {
	locs := embeddedPhonePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(locs))
	var phones []string
	for _, loc := range locs {
		if loc[0] > 0 && isASCIIDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isASCIIDigit(text[loc[1]]) {
			continue
		}
		digits := cleanPhone(text[loc[0]:loc[1]])
		// Short grouped matches lost their leading zero in the source text.
		for len(digits) < CanonicalSuffixLen {
			digits = "0" + digits
		}
		normalized := NormalizePhone(digits)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		phones = append(phones, normalized)
	}
	return phones
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
