package urlstd

import (
	"fmt"
	"strings"
)

func isForbiddenHostCodePoint(c rune) bool {
	switch c {
	case 0x00, '\t', '\n', '\r', ' ', '#', '/', ':', '<', '>', '?', '@', '[', '\\', ']', '^', '|':
		return true
	}
	return false
}

func isForbiddenDomainCodePoint(c rune) bool {
	return isForbiddenHostCodePoint(c) || (c >= 0 && c <= 0x1F) || c == '%' || c == 0x7F
}

// parseHost parses the host component of an authority. isOpaque selects
// opaque host parsing, used for non-special schemes.
func parseHost(input string, isOpaque bool) (string, error) {
	if strings.HasPrefix(input, "[") {
		if !strings.HasSuffix(input, "]") || len(input) < 2 {
			return "", fmt.Errorf("%w: unclosed ipv6 literal %q", ErrInvalidURL, input)
		}
		addr, err := parseIPv6(input[1 : len(input)-1])
		if err != nil {
			return "", err
		}
		return "[" + addr.String() + "]", nil
	}
	if isOpaque {
		return parseOpaqueHost(input)
	}

	domain := utf8DecodeWithoutBOM(percentDecode(input))
	ascii, err := domainToASCII(domain)
	if err != nil {
		return "", err
	}
	if endsInANumber(ascii) {
		addr, err := parseIPv4(ascii)
		if err != nil {
			return "", err
		}
		return serializeIPv4(addr), nil
	}
	return ascii, nil
}

func parseOpaqueHost(input string) (string, error) {
	if i := strings.IndexFunc(input, isForbiddenHostCodePoint); i >= 0 {
		return "", fmt.Errorf("%w: opaque host %q contains forbidden code point", ErrInvalidURL, input)
	}
	return percentEncodeString(input, c0ControlSet, false), nil
}
