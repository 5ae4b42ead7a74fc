package adhoc

import (
	"strings"
	"unicode"
)

// Capsify converts an internal name into its external camelCase form.
//
// Words are separated explicitly by '-', '_' or '.', and implicitly where a
// lowercase letter or a digit is followed by an uppercase one, or where two uppercase
// letters are followed by a lowercase one (the second uppercase letter starts
// the next word, so "XMLParser" splits into "XML" and "Parser"). The first
// word is lower-cased; every following word is lower-cased with its first
// character upper-cased.
//
//	Capsify("foo_bar")   == "fooBar"
//	Capsify("fooBar")    == "fooBar"
//	Capsify("XMLParser") == "xmlParser"
//	Capsify("ip_v4_address") == "ipV4Address"
//
// Capsify is not idempotent for every input: consecutive one-letter words
// ("a_b_c" gives "aBC", which reads back as "aBc") cannot round-trip. Use
// Canonical to reject such names.
func Capsify(name string) string {
	words := SplitWords(name)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for i, w := range words {
		lw := []rune(strings.ToLower(w))
		if i > 0 {
			lw[0] = unicode.ToUpper(lw[0])
		}
		b.WriteString(string(lw))
	}
	return b.String()
}

// SplitWords splits name into words using the rules documented on Capsify.
// Empty words are dropped.
func SplitWords(name string) []string {
	rs := []rune(name)
	var words []string
	start := 0
	flush := func(end int) {
		if end > start {
			words = append(words, string(rs[start:end]))
		}
	}
	for i, r := range rs {
		switch {
		case r == '-' || r == '_' || r == '.':
			flush(i)
			start = i + 1
			continue
		case i == 0:
			continue
		}
		prev := rs[i-1]
		if (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(r) {
			flush(i)
			start = i
			continue
		}
		if i+1 < len(rs) && unicode.IsUpper(prev) && unicode.IsUpper(r) && unicode.IsLower(rs[i+1]) {
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return words
}

// Canonical reports whether the external form of name is a fixed point of
// Capsify, so that looking the external form up again finds the same entry.
// Names without words are not canonical.
func Canonical(name string) bool {
	c := Capsify(name)
	return c != "" && Capsify(c) == c
}
