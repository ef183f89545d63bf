package urlstd

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidURL is returned (possibly wrapped) for every input the parser
// rejects. No partial record is ever returned alongside it.
var ErrInvalidURL = errors.New("urlstd: invalid URL")

// ErrOverrideIgnored reports a state-override parse whose change is not
// allowed, e.g. switching a special URL to a non-special scheme. The URL
// setters treat it as "leave the URL unchanged".
var ErrOverrideIgnored = fmt.Errorf("%w: change not allowed for this URL", ErrInvalidURL)

const eof rune = -1

// parser holds the state of one run of the URL state machine.
type parser struct {
	input    []rune
	pointer  int
	state    ParseState
	override ParseState
	url      *Record
	base     *Record
	buf      strings.Builder

	atSignSeen        bool
	insideBrackets    bool
	passwordTokenSeen bool
}

// Parse parses input as a URL, resolving it against base when base is not
// nil. It returns an error wrapping ErrInvalidURL on failure.
func Parse(input string, base *Record) (*Record, error) {
	return parse(input, base, nil, stateNone)
}

// ParseWithOverride parses input starting in state and merges the result
// into a copy of rec. Leading and trailing spaces are not trimmed. rec
// itself is never modified.
func ParseWithOverride(input string, rec *Record, state ParseState) (*Record, error) {
	if rec == nil || state == stateNone || state > StateFragment {
		return nil, fmt.Errorf("%w: state override needs a record and a state", ErrInvalidURL)
	}
	return parse(input, nil, rec, state)
}

// CanParse reports whether input parses as an absolute URL.
func CanParse(input string) bool {
	_, err := Parse(input, nil)
	return err == nil
}

// CanParseWithBase reports whether input parses against base.
func CanParseWithBase(input, base string) bool {
	b, err := Parse(base, nil)
	if err != nil {
		return false
	}
	_, err = Parse(input, b)
	return err == nil
}

func parse(input string, base, rec *Record, override ParseState) (*Record, error) {
	p := &parser{base: base, override: override, state: override}
	if rec != nil {
		p.url = rec.Clone()
	} else {
		p.url = &Record{}
		p.state = StateSchemeStart
	}

	runes := []rune(input)
	if rec == nil {
		start, end := 0, len(runes)
		for start < end && isC0ControlOrSpace(runes[start]) {
			start++
		}
		for end > start && isC0ControlOrSpace(runes[end-1]) {
			end--
		}
		runes = runes[start:end]
	}
	p.input = runes[:0:0]
	for _, c := range runes {
		if !isASCIITabOrNewline(c) {
			p.input = append(p.input, c)
		}
	}

	for ; p.pointer <= len(p.input); p.pointer++ {
		done, err := p.step(p.at(p.pointer))
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return p.url, nil
}

func (p *parser) at(i int) rune {
	if i >= 0 && i < len(p.input) {
		return p.input[i]
	}
	return eof
}

func (p *parser) remainingStartsWith(s string) bool {
	i := p.pointer + 1
	for _, c := range s {
		if p.at(i) != c {
			return false
		}
		i++
	}
	return true
}

// startsWithWindowsDriveLetter reports whether the input from index i
// begins with a drive letter such as "C:" or "c|" that is followed by
// nothing or by a path, query or fragment delimiter.
func (p *parser) startsWithWindowsDriveLetter(i int) bool {
	if len(p.input)-i < 2 || !isWindowsDriveLetter(string(p.input[i:i+2])) {
		return false
	}
	if len(p.input)-i == 2 {
		return true
	}
	switch p.input[i+2] {
	case '/', '\\', '?', '#':
		return true
	}
	return false
}

func (p *parser) fail(format string, args ...any) error {
	return fmt.Errorf("%w: %s state: %s", ErrInvalidURL, p.state, fmt.Sprintf(format, args...))
}

// step consumes one code point. done reports that a state-override parse
// has finished early.
func (p *parser) step(c rune) (done bool, err error) {
	switch p.state {
	case StateSchemeStart:
		return p.schemeStart(c)
	case StateScheme:
		return p.scheme(c)
	case StateNoScheme:
		return false, p.noScheme(c)
	case StateSpecialRelativeOrAuthority:
		if c == '/' && p.remainingStartsWith("/") {
			p.state = StateSpecialAuthorityIgnoreSlashes
			p.pointer++
		} else {
			p.state = StateRelative
			p.pointer--
		}
	case StatePathOrAuthority:
		if c == '/' {
			p.state = StateAuthority
		} else {
			p.state = StatePath
			p.pointer--
		}
	case StateRelative:
		p.relative(c)
	case StateRelativeSlash:
		p.relativeSlash(c)
	case StateSpecialAuthoritySlashes:
		p.state = StateSpecialAuthorityIgnoreSlashes
		if c == '/' && p.remainingStartsWith("/") {
			p.pointer++
		} else {
			p.pointer--
		}
	case StateSpecialAuthorityIgnoreSlashes:
		if c != '/' && c != '\\' {
			p.state = StateAuthority
			p.pointer--
		}
	case StateAuthority:
		return false, p.authority(c)
	case StateHost, StateHostname:
		return p.host(c)
	case StatePort:
		return p.port(c)
	case StateFile:
		p.file(c)
	case StateFileSlash:
		p.fileSlash(c)
	case StateFileHost:
		return p.fileHost(c)
	case StatePathStart:
		p.pathStart(c)
	case StatePath:
		p.path(c)
	case StateOpaquePath:
		p.opaquePath(c)
	case StateQuery:
		p.query(c)
	case StateFragment:
		p.fragment(c)
	default:
		return false, p.fail("unknown state")
	}
	return false, nil
}

func (p *parser) schemeStart(c rune) (bool, error) {
	switch {
	case isASCIIAlpha(c):
		p.buf.WriteRune(toASCIILower(c))
		p.state = StateScheme
	case p.override == stateNone:
		p.state = StateNoScheme
		p.pointer--
	default:
		return false, p.fail("scheme must start with a letter")
	}
	return false, nil
}

func (p *parser) scheme(c rune) (bool, error) {
	switch {
	case isASCIIAlphanumeric(c) || c == '+' || c == '-' || c == '.':
		p.buf.WriteRune(toASCIILower(c))
	case c == ':':
		scheme := p.buf.String()
		if p.override != stateNone {
			if p.url.Special() != isSpecialScheme(scheme) {
				return false, ErrOverrideIgnored
			}
			if scheme == "file" && (p.url.includesCredentials() || p.url.Port.Valid) {
				return false, ErrOverrideIgnored
			}
			if p.url.Scheme == "file" && p.url.Host.Valid && p.url.Host.Value == "" {
				return false, ErrOverrideIgnored
			}
		}
		p.url.Scheme = scheme
		if p.override != stateNone {
			if dp, ok := DefaultPort(scheme); ok && p.url.Port.Valid && p.url.Port.Value == dp {
				p.url.Port = Opt[uint16]{}
			}
			return true, nil
		}
		p.buf.Reset()
		switch {
		case scheme == "file":
			p.state = StateFile
		case p.url.Special() && p.base != nil && p.base.Scheme == scheme:
			p.state = StateSpecialRelativeOrAuthority
		case p.url.Special():
			p.state = StateSpecialAuthoritySlashes
		case p.remainingStartsWith("/"):
			p.state = StatePathOrAuthority
			p.pointer++
		default:
			p.url.Path = OpaquePath("")
			p.state = StateOpaquePath
		}
	case p.override == stateNone:
		p.buf.Reset()
		p.state = StateNoScheme
		p.pointer = -1
	default:
		return false, p.fail("invalid scheme code point %q", c)
	}
	return false, nil
}

func (p *parser) noScheme(c rune) error {
	b := p.base
	switch {
	case b == nil || (b.Path.IsOpaque() && c != '#'):
		return p.fail("relative URL without a usable base")
	case b.Path.IsOpaque() && c == '#':
		p.url.Scheme = b.Scheme
		p.url.Path = b.Path.clone()
		p.url.Query = b.Query
		p.url.Fragment = Some("")
		p.state = StateFragment
	case b.Scheme != "file":
		p.state = StateRelative
		p.pointer--
	default:
		p.state = StateFile
		p.pointer--
	}
	return nil
}

func (p *parser) copyAuthorityFromBase() {
	p.url.Username = p.base.Username
	p.url.Password = p.base.Password
	p.url.Host = p.base.Host
	p.url.Port = p.base.Port
}

func (p *parser) relative(c rune) {
	p.url.Scheme = p.base.Scheme
	if c == '/' || (p.url.Special() && c == '\\') {
		p.state = StateRelativeSlash
		return
	}
	p.copyAuthorityFromBase()
	p.url.Path = p.base.Path.clone()
	p.url.Query = p.base.Query
	switch {
	case c == '?':
		p.url.Query = Some("")
		p.state = StateQuery
	case c == '#':
		p.url.Fragment = Some("")
		p.state = StateFragment
	case c != eof:
		p.url.Query = Opt[string]{}
		p.url.shortenPath()
		p.state = StatePath
		p.pointer--
	}
}

func (p *parser) relativeSlash(c rune) {
	switch {
	case p.url.Special() && (c == '/' || c == '\\'):
		p.state = StateSpecialAuthorityIgnoreSlashes
	case c == '/':
		p.state = StateAuthority
	default:
		p.copyAuthorityFromBase()
		p.state = StatePath
		p.pointer--
	}
}

func (p *parser) authority(c rune) error {
	switch {
	case c == '@':
		if p.atSignSeen {
			rest := p.buf.String()
			p.buf.Reset()
			p.buf.WriteString("%40")
			p.buf.WriteString(rest)
		}
		p.atSignSeen = true
		var user, pass strings.Builder
		user.WriteString(p.url.Username)
		pass.WriteString(p.url.Password)
		for _, r := range p.buf.String() {
			if r == ':' && !p.passwordTokenSeen {
				p.passwordTokenSeen = true
				continue
			}
			if p.passwordTokenSeen {
				appendPercentEncoded(&pass, r, userinfoSet, false)
			} else {
				appendPercentEncoded(&user, r, userinfoSet, false)
			}
		}
		p.url.Username, p.url.Password = user.String(), pass.String()
		p.buf.Reset()
	case c == eof || c == '/' || c == '?' || c == '#' || (p.url.Special() && c == '\\'):
		if p.atSignSeen && p.buf.Len() == 0 {
			return p.fail("credentials without a host")
		}
		p.pointer -= utf8.RuneCountInString(p.buf.String()) + 1
		p.buf.Reset()
		p.state = StateHost
	default:
		p.buf.WriteRune(c)
	}
	return nil
}

func (p *parser) host(c rune) (bool, error) {
	special := p.url.Special()
	switch {
	case p.override != stateNone && p.url.Scheme == "file":
		p.pointer--
		p.state = StateFileHost
	case c == ':' && !p.insideBrackets:
		if p.buf.Len() == 0 {
			return false, p.fail("missing host before port")
		}
		if p.override == StateHostname {
			return false, ErrOverrideIgnored
		}
		host, err := parseHost(p.buf.String(), !special)
		if err != nil {
			return false, err
		}
		p.url.Host = Some(host)
		p.buf.Reset()
		p.state = StatePort
	case c == eof || c == '/' || c == '?' || c == '#' || (special && c == '\\'):
		p.pointer--
		if special && p.buf.Len() == 0 {
			return false, p.fail("empty host")
		}
		if p.override != stateNone && p.buf.Len() == 0 && (p.url.includesCredentials() || p.url.Port.Valid) {
			return false, ErrOverrideIgnored
		}
		host, err := parseHost(p.buf.String(), !special)
		if err != nil {
			return false, err
		}
		p.url.Host = Some(host)
		p.buf.Reset()
		p.state = StatePathStart
		if p.override != stateNone {
			return true, nil
		}
	default:
		if c == '[' {
			p.insideBrackets = true
		} else if c == ']' {
			p.insideBrackets = false
		}
		p.buf.WriteRune(c)
	}
	return false, nil
}

func (p *parser) port(c rune) (bool, error) {
	switch {
	case isASCIIDigit(c):
		p.buf.WriteRune(c)
	case c == eof || c == '/' || c == '?' || c == '#' || (p.url.Special() && c == '\\') || p.override != stateNone:
		if p.buf.Len() != 0 {
			port := 0
			for _, d := range p.buf.String() {
				port = port*10 + int(d-'0')
				if port > 0xFFFF {
					return false, p.fail("port %s out of range", p.buf.String())
				}
			}
			if dp, ok := DefaultPort(p.url.Scheme); ok && uint16(port) == dp {
				p.url.Port = Opt[uint16]{}
			} else {
				p.url.Port = Some(uint16(port))
			}
			p.buf.Reset()
			if p.override != stateNone {
				return true, nil
			}
		}
		if p.override != stateNone {
			return false, p.fail("empty port")
		}
		p.state = StatePathStart
		p.pointer--
	default:
		return false, p.fail("invalid port code point %q", c)
	}
	return false, nil
}

func (p *parser) file(c rune) {
	p.url.Scheme = "file"
	p.url.Host = Some("")
	switch {
	case c == '/' || c == '\\':
		p.state = StateFileSlash
	case p.base != nil && p.base.Scheme == "file":
		p.url.Host = p.base.Host
		p.url.Path = p.base.Path.clone()
		p.url.Query = p.base.Query
		switch {
		case c == '?':
			p.url.Query = Some("")
			p.state = StateQuery
		case c == '#':
			p.url.Fragment = Some("")
			p.state = StateFragment
		case c != eof:
			p.url.Query = Opt[string]{}
			if p.startsWithWindowsDriveLetter(p.pointer) {
				p.url.Path = SegmentedPath()
			} else {
				p.url.shortenPath()
			}
			p.state = StatePath
			p.pointer--
		}
	default:
		p.state = StatePath
		p.pointer--
	}
}

func (p *parser) fileSlash(c rune) {
	if c == '/' || c == '\\' {
		p.state = StateFileHost
		return
	}
	if b := p.base; b != nil && b.Scheme == "file" {
		p.url.Host = b.Host
		if !p.startsWithWindowsDriveLetter(p.pointer) && b.Path.Len() > 0 &&
			isNormalizedWindowsDriveLetter(b.Path.segments[0]) {
			p.url.appendSegment(b.Path.segments[0])
		}
	}
	p.state = StatePath
	p.pointer--
}

func (p *parser) fileHost(c rune) (bool, error) {
	switch c {
	case eof, '/', '\\', '?', '#':
		p.pointer--
		buf := p.buf.String()
		switch {
		case p.override == stateNone && isWindowsDriveLetter(buf):
			// The buffer is kept: the path state turns it into the first segment.
			p.state = StatePath
		case buf == "":
			p.url.Host = Some("")
			if p.override != stateNone {
				return true, nil
			}
			p.state = StatePathStart
		default:
			host, err := parseHost(buf, !p.url.Special())
			if err != nil {
				return false, err
			}
			if host == "localhost" {
				host = ""
			}
			p.url.Host = Some(host)
			if p.override != stateNone {
				return true, nil
			}
			p.buf.Reset()
			p.state = StatePathStart
		}
	default:
		p.buf.WriteRune(c)
	}
	return false, nil
}

func (p *parser) pathStart(c rune) {
	switch {
	case p.url.Special():
		p.state = StatePath
		if c != '/' && c != '\\' {
			p.pointer--
		}
	case p.override == stateNone && c == '?':
		p.url.Query = Some("")
		p.state = StateQuery
	case p.override == stateNone && c == '#':
		p.url.Fragment = Some("")
		p.state = StateFragment
	case c != eof:
		p.state = StatePath
		if c != '/' {
			p.pointer--
		}
	case p.override != stateNone && !p.url.Host.Valid:
		p.url.appendSegment("")
	}
}

func (p *parser) path(c rune) {
	special := p.url.Special()
	slash := c == '/' || (special && c == '\\')
	if !(c == eof || slash || (p.override == stateNone && (c == '?' || c == '#'))) {
		appendPercentEncoded(&p.buf, c, pathSet, false)
		return
	}

	buf := p.buf.String()
	switch {
	case isDoubleDotSegment(buf):
		p.url.shortenPath()
		if !slash {
			p.url.appendSegment("")
		}
	case isSingleDotSegment(buf):
		if !slash {
			p.url.appendSegment("")
		}
	default:
		if p.url.Scheme == "file" && p.url.Path.Len() == 0 && isWindowsDriveLetter(buf) {
			buf = buf[:1] + ":"
		}
		p.url.appendSegment(buf)
	}
	p.buf.Reset()

	switch c {
	case '?':
		p.url.Query = Some("")
		p.state = StateQuery
	case '#':
		p.url.Fragment = Some("")
		p.state = StateFragment
	}
}

func (p *parser) opaquePath(c rune) {
	switch c {
	case '?', '#', eof:
		p.url.Path = OpaquePath(p.url.Path.opaque + p.buf.String())
		p.buf.Reset()
		if c == '?' {
			p.url.Query = Some("")
			p.state = StateQuery
		} else if c == '#' {
			p.url.Fragment = Some("")
			p.state = StateFragment
		}
	default:
		appendPercentEncoded(&p.buf, c, c0ControlSet, false)
	}
}

func (p *parser) query(c rune) {
	if c != eof && (p.override != stateNone || c != '#') {
		p.buf.WriteRune(c)
		return
	}
	set := querySet
	if p.url.Special() {
		set = specialQuerySet
	}
	var b strings.Builder
	b.WriteString(p.url.Query.Value)
	for _, r := range p.buf.String() {
		appendPercentEncoded(&b, r, set, false)
	}
	p.url.Query = Some(b.String())
	p.buf.Reset()
	if c == '#' {
		p.url.Fragment = Some("")
		p.state = StateFragment
	}
}

func (p *parser) fragment(c rune) {
	if c != eof {
		appendPercentEncoded(&p.buf, c, fragmentSet, false)
		return
	}
	p.url.Fragment = Some(p.url.Fragment.Value + p.buf.String())
	p.buf.Reset()
}

func isWindowsDriveLetter(s string) bool {
	return len(s) == 2 && isASCIIAlpha(rune(s[0])) && (s[1] == ':' || s[1] == '|')
}

func isNormalizedWindowsDriveLetter(s string) bool {
	return len(s) == 2 && isASCIIAlpha(rune(s[0])) && s[1] == ':'
}

func isSingleDotSegment(s string) bool {
	return s == "." || strings.EqualFold(s, "%2e")
}

func isDoubleDotSegment(s string) bool {
	switch strings.ToLower(s) {
	case "..", ".%2e", "%2e.", "%2e%2e":
		return true
	}
	return false
}
