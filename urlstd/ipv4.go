package urlstd

import (
	"fmt"
	"strconv"
	"strings"
)

// ipv4NumberCap bounds accumulated IPv4 numbers. Any value at or above it
// is out of range for every position, so larger inputs need no exact value.
const ipv4NumberCap = 1 << 33

// parseIPv4Number parses one dot-separated part of an IPv4 host using the
// URL Standard's radix rules: "0x" prefix selects hex, a leading "0" octal,
// otherwise decimal.
func parseIPv4Number(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	radix := uint64(10)
	switch {
	case len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
		s = s[2:]
		radix = 16
	case len(s) >= 2 && s[0] == '0':
		s = s[1:]
		radix = 8
	}
	if s == "" {
		return 0, true
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i], radix)
		if !ok {
			return 0, false
		}
		if n < ipv4NumberCap {
			n = n*radix + d
		}
	}
	if n > ipv4NumberCap {
		n = ipv4NumberCap
	}
	return n, true
}

func digitValue(c byte, radix uint64) (uint64, bool) {
	var d uint64
	switch {
	case '0' <= c && c <= '9':
		d = uint64(c - '0')
	case 'a' <= c && c <= 'f':
		d = uint64(c-'a') + 10
	case 'A' <= c && c <= 'F':
		d = uint64(c-'A') + 10
	default:
		return 0, false
	}
	return d, d < radix
}

// endsInANumber reports whether the last label of an ASCII domain looks
// numeric, in which case the whole host must parse as IPv4.
func endsInANumber(domain string) bool {
	parts := strings.Split(domain, ".")
	if parts[len(parts)-1] == "" {
		if len(parts) == 1 {
			return false
		}
		parts = parts[:len(parts)-1]
	}
	last := parts[len(parts)-1]
	if last != "" && strings.Trim(last, "0123456789") == "" {
		return true
	}
	_, ok := parseIPv4Number(last)
	return ok
}

// parseIPv4 parses a host such as "192.168.1", "0x7f.1" or "2077391737" into
// a 32-bit address.
func parseIPv4(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if parts[len(parts)-1] == "" && len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 4 {
		return 0, fmt.Errorf("%w: ipv4 %q has too many parts", ErrInvalidURL, s)
	}
	numbers := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, ok := parseIPv4Number(p)
		if !ok {
			return 0, fmt.Errorf("%w: ipv4 part %q is not a number", ErrInvalidURL, p)
		}
		numbers = append(numbers, n)
	}
	last := numbers[len(numbers)-1]
	for _, n := range numbers[:len(numbers)-1] {
		if n > 255 {
			return 0, fmt.Errorf("%w: ipv4 %q part out of range", ErrInvalidURL, s)
		}
	}
	if last >= 1<<(8*(5-len(numbers))) {
		return 0, fmt.Errorf("%w: ipv4 %q out of range", ErrInvalidURL, s)
	}
	addr := last
	for i, n := range numbers[:len(numbers)-1] {
		addr += n << (8 * (3 - i))
	}
	return uint32(addr), nil
}

func serializeIPv4(addr uint32) string {
	var b strings.Builder
	for i := 3; i >= 0; i-- {
		b.WriteString(strconv.FormatUint(uint64(addr>>(8*i)&0xFF), 10))
		if i != 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}
