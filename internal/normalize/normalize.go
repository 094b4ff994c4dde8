// Package normalize provides lossy canonicalization of book record fields.
//
// These functions deliberately trade precision for tolerance of real-world
// formatting noise: hyphenated ISBNs, currency symbols in prices, and
// author lists punctuated differently by every publisher. Comparison code
// depends on the exact behavior here, so changes need matching test updates.
package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// CleanISBN strips every character that is not an ASCII digit.
// "978-89-123-4567-1" and "9788912345671" normalize to the same value.
func CleanISBN(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanPrice strips every non-digit character and parses the remainder as a
// non-negative integer. Signs and decimal separators are dropped, so
// "15,000원" and "15000" compare equal. Unparseable or empty input yields 0.
func CleanPrice(s string) int {
	digits := CleanISBN(s)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// normalizeAuthor lower-cases an author string and removes whitespace and
// commas, collapsing "Kim, Minjun" and "minjun kim" toward comparable forms.
func normalizeAuthor(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CompareAuthors reports whether two author strings plausibly refer to the
// same author(s). Both sides are normalized, then matched by containment in
// either direction, so a single author matches an "A, B, C" list that
// includes them. A side written as "Lastname, Firstname" is also tried with
// the two parts swapped, so it matches "Firstname Lastname". Either side
// empty yields false.
func CompareAuthors(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, na := range authorVariants(a) {
		for _, nb := range authorVariants(b) {
			if strings.Contains(na, nb) || strings.Contains(nb, na) {
				return true
			}
		}
	}
	return false
}

// authorVariants returns the normalized forms an author string may compare
// as. A string with exactly one comma is treated as "Lastname, Firstname"
// and contributes the swapped ordering as well; more commas mean an author
// list, which only compares in its given order.
func authorVariants(s string) []string {
	variants := []string{normalizeAuthor(s)}
	if strings.Count(s, ",") == 1 {
		parts := strings.SplitN(s, ",", 2)
		variants = append(variants, normalizeAuthor(parts[1]+parts[0]))
	}
	return variants
}

// TitleMatch reports substring containment in either direction between two
// raw title strings. Titles vary too much in formatting for this to be a
// reliable signal, so callers treat the result as informational only.
func TitleMatch(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FormatPubDate reformats an 8-digit YYYYMMDD publication date as
// YYYY-MM-DD. Any other length or format passes through unchanged.
func FormatPubDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

// FormatPrice renders a price string for display with thousands grouping
// ("15000" -> "15,000"). Currency symbols and grouping in the input are
// ignored; unparseable or empty input renders as "0".
func FormatPrice(s string) string {
	n := CleanPrice(s)
	return groupThousands(strconv.Itoa(n))
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
