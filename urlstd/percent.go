package urlstd

import (
	"strings"
	"unicode/utf8"
)

// encodeSet decides which code points must be percent-encoded in a given
// URL component. Only ASCII code points can be excluded from a set; every
// non-ASCII code point is always encoded.
type encodeSet [128]bool

func (s *encodeSet) contains(c rune) bool {
	return c < 0 || c >= 0x80 || s[c]
}

func newEncodeSet(parent *encodeSet, extra string) *encodeSet {
	var s encodeSet
	if parent != nil {
		s = *parent
	}
	for i := 0; i < len(extra); i++ {
		s[extra[i]] = true
	}
	return &s
}

func c0ControlEncodeSet() *encodeSet {
	var s encodeSet
	for c := 0; c < 0x20; c++ {
		s[c] = true
	}
	s[0x7F] = true
	return &s
}

var (
	c0ControlSet      = c0ControlEncodeSet()
	fragmentSet       = newEncodeSet(c0ControlSet, " \"<>`")
	querySet          = newEncodeSet(c0ControlSet, " \"#<>")
	specialQuerySet   = newEncodeSet(querySet, "'")
	pathSet           = newEncodeSet(querySet, "?^`{}")
	userinfoSet       = newEncodeSet(pathSet, "/:;=@[\\]|")
	componentSet      = newEncodeSet(userinfoSet, "$%&+,")
	formURLEncodedSet = newEncodeSet(componentSet, "!'()~")
)

const upperHex = "0123456789ABCDEF"

// appendPercentEncoded appends c to b, percent-encoding its UTF-8 bytes if
// c is in set. With spaceAsPlus, U+0020 is written as '+'.
func appendPercentEncoded(b *strings.Builder, c rune, set *encodeSet, spaceAsPlus bool) {
	if spaceAsPlus && c == ' ' {
		b.WriteByte('+')
		return
	}
	if !set.contains(c) {
		b.WriteRune(c)
		return
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], c)
	for _, x := range buf[:n] {
		b.WriteByte('%')
		b.WriteByte(upperHex[x>>4])
		b.WriteByte(upperHex[x&0x0F])
	}
}

// percentEncodeString percent-encodes every code point of s that is in set.
func percentEncodeString(s string, set *encodeSet, spaceAsPlus bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		appendPercentEncoded(&b, c, set, spaceAsPlus)
	}
	return b.String()
}

// percentDecode decodes "%XX" sequences byte-wise; malformed sequences are
// kept verbatim. The result may not be valid UTF-8.
func percentDecode(s string) []byte {
	if strings.IndexByte(s, '%') < 0 {
		return []byte(s)
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isASCIIHexDigit(rune(s[i+1])) && isASCIIHexDigit(rune(s[i+2])) {
			out = append(out, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		out = append(out, c)
	}
	return out
}

// utf8DecodeWithoutBOM converts b to a string, replacing invalid sequences
// with U+FFFD.
func utf8DecodeWithoutBOM(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isASCIIDigit(c rune) bool { return '0' <= c && c <= '9' }

func isASCIIHexDigit(c rune) bool {
	return isASCIIDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isASCIIAlpha(c rune) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }

func isASCIIAlphanumeric(c rune) bool { return isASCIIAlpha(c) || isASCIIDigit(c) }

func toASCIILower(c rune) rune {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isC0ControlOrSpace(c rune) bool { return c >= 0 && c <= 0x20 }

func isASCIITabOrNewline(c rune) bool { return c == '\t' || c == '\n' || c == '\r' }
