package urlstd

import "strings"

// EquivalenceOption relaxes URL comparison and cloning.
type EquivalenceOption uint8

const (
	// IgnoreFragments disregards the fragment.
	IgnoreFragments EquivalenceOption = 1 << iota
	// IgnoreSearch disregards the query.
	IgnoreSearch
	// NormalizePath compares paths after decoding and re-encoding every
	// percent-escape except "%2F".
	NormalizePath
)

// Equal reports whether a and b are the same URL. With no options the
// serializations are compared.
func Equal(a, b *URL, opt EquivalenceOption) bool {
	if opt == 0 {
		return a.Href() == b.Href()
	}
	ap, bp := a.Pathname(), b.Pathname()
	if opt&NormalizePath != 0 {
		ap, bp = normalizePathEncoding(ap), normalizePathEncoding(bp)
	}
	return a.Protocol() == b.Protocol() &&
		a.Host() == b.Host() &&
		a.Username() == b.Username() &&
		a.Password() == b.Password() &&
		ap == bp &&
		(opt&IgnoreSearch != 0 || a.Search() == b.Search()) &&
		(opt&IgnoreFragments != 0 || a.Hash() == b.Hash())
}

// normalizePathEncoding decodes pathname and encodes it again with the path
// percent-encode set, so that "/%66oo" and "/foo" compare equal. Encoded
// slashes keep their meaning and are emitted as "%2F".
func normalizePathEncoding(pathname string) string {
	var b strings.Builder
	for i, part := range splitEncodedSlash(pathname) {
		if i > 0 {
			b.WriteString("%2F")
		}
		for _, c := range percentDecode(part) {
			if c >= 0x80 || pathSet.contains(rune(c)) {
				b.WriteByte('%')
				b.WriteByte(upperHex[c>>4])
				b.WriteByte(upperHex[c&0x0F])
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func splitEncodedSlash(s string) []string {
	var parts []string
	for {
		i := strings.Index(s, "%2")
		for i >= 0 && (i+2 >= len(s) || (s[i+2] != 'f' && s[i+2] != 'F')) {
			j := strings.Index(s[i+2:], "%2")
			if j < 0 {
				i = -1
			} else {
				i += 2 + j
			}
		}
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+3:]
	}
}
