package urlstd

import (
	"fmt"
	"strconv"
	"strings"
)

type ipv6Address [8]uint16

// parseIPv6 parses the text between the brackets of an IPv6 host literal.
// It accepts "::" compression and a trailing embedded IPv4 address.
func parseIPv6(input string) (ipv6Address, error) {
	var addr ipv6Address
	fail := func(why string) (ipv6Address, error) {
		return ipv6Address{}, fmt.Errorf("%w: ipv6 [%s]: %s", ErrInvalidURL, input, why)
	}
	in := []rune(input)
	at := func(i int) rune {
		if i < len(in) {
			return in[i]
		}
		return eof
	}
	pieceIndex, compress, p := 0, -1, 0

	if at(p) == ':' {
		if at(p+1) != ':' {
			return fail("leading single colon")
		}
		p += 2
		pieceIndex++
		compress = pieceIndex
	}

pieces:
	for at(p) != eof {
		if pieceIndex == 8 {
			return fail("too many pieces")
		}
		if at(p) == ':' {
			if compress != -1 {
				return fail("multiple compressions")
			}
			p++
			pieceIndex++
			compress = pieceIndex
			continue
		}

		value, length := 0, 0
		for length < 4 && isASCIIHexDigit(at(p)) {
			value = value*0x10 + int(unhex(byte(at(p))))
			p++
			length++
		}

		switch at(p) {
		case '.':
			if length == 0 {
				return fail("empty piece before ipv4")
			}
			p -= length
			if pieceIndex > 6 {
				return fail("ipv4 part too late")
			}
			numbersSeen := 0
			for at(p) != eof {
				ipv4Piece := -1
				if numbersSeen > 0 {
					if at(p) == '.' && numbersSeen < 4 {
						p++
					} else {
						return fail("invalid ipv4 separator")
					}
				}
				if !isASCIIDigit(at(p)) {
					return fail("ipv4 part is not a number")
				}
				for isASCIIDigit(at(p)) {
					n := int(at(p) - '0')
					switch ipv4Piece {
					case -1:
						ipv4Piece = n
					case 0:
						return fail("ipv4 part has leading zero")
					default:
						ipv4Piece = ipv4Piece*10 + n
					}
					if ipv4Piece > 255 {
						return fail("ipv4 part out of range")
					}
					p++
				}
				addr[pieceIndex] = addr[pieceIndex]*0x100 + uint16(ipv4Piece)
				numbersSeen++
				if numbersSeen == 2 || numbersSeen == 4 {
					pieceIndex++
				}
			}
			if numbersSeen != 4 {
				return fail("truncated ipv4 part")
			}
			break pieces
		case ':':
			p++
			if at(p) == eof {
				return fail("trailing colon")
			}
		case eof:
		default:
			return fail("unexpected code point")
		}
		addr[pieceIndex] = uint16(value)
		pieceIndex++
	}

	if compress != -1 {
		swaps := pieceIndex - compress
		pieceIndex = 7
		for pieceIndex != 0 && swaps > 0 {
			addr[pieceIndex], addr[compress+swaps-1] = addr[compress+swaps-1], addr[pieceIndex]
			pieceIndex--
			swaps--
		}
	} else if pieceIndex != 8 {
		return fail("too few pieces")
	}
	return addr, nil
}

// compressIndex returns the start of the first longest run of two or more
// zero pieces, or -1.
func (a ipv6Address) compressIndex() int {
	best, bestLen := -1, 1
	for i := 0; i < 8; {
		if a[i] != 0 {
			i++
			continue
		}
		j := i
		for j < 8 && a[j] == 0 {
			j++
		}
		if j-i > bestLen {
			best, bestLen = i, j-i
		}
		i = j
	}
	return best
}

// String serializes the address in lowercase hex with the first longest
// zero run compressed to "::".
func (a ipv6Address) String() string {
	var b strings.Builder
	compress := a.compressIndex()
	ignore0 := false
	for i := 0; i < 8; i++ {
		if ignore0 && a[i] == 0 {
			continue
		}
		ignore0 = false
		if compress == i {
			if i == 0 {
				b.WriteString("::")
			} else {
				b.WriteByte(':')
			}
			ignore0 = true
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(a[i]), 16))
		if i != 7 {
			b.WriteByte(':')
		}
	}
	return b.String()
}
