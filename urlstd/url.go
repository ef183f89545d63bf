package urlstd

import "strings"

// URL is a mutable URL with the accessor and setter behaviour of the URL
// Standard API. Setters given a value that does not parse leave the URL
// unchanged. A URL is not safe for concurrent mutation.
type URL struct {
	rec    *Record
	params *SearchParams
}

// New parses input, resolved against base when one is given, and returns
// the resulting URL.
func New(input string, base ...string) (*URL, error) {
	var b *Record
	if len(base) > 0 {
		var err error
		if b, err = Parse(base[0], nil); err != nil {
			return nil, err
		}
	}
	rec, err := Parse(input, b)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}

// FromRecord wraps a copy of rec.
func FromRecord(rec *Record) *URL {
	u := &URL{rec: rec.Clone()}
	u.params = &SearchParams{url: u}
	u.syncParams()
	return u
}

func (u *URL) syncParams() {
	u.params.list = nil
	if u.rec.Query.Valid {
		u.params.list = parseURLEncoded(u.rec.Query.Value)
	}
}

// Record returns a copy of the underlying URL record.
func (u *URL) Record() *Record { return u.rec.Clone() }

// Resolve parses input relative to u.
func (u *URL) Resolve(input string) (*URL, error) {
	rec, err := Parse(input, u.rec)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}

// Clone returns a copy of u with the components selected by opt cleared
// or normalized.
func (u *URL) Clone(opt EquivalenceOption) *URL {
	rec := u.rec.Clone()
	if opt&IgnoreFragments != 0 {
		rec.Fragment = Opt[string]{}
	}
	if opt&IgnoreSearch != 0 {
		rec.Query = Opt[string]{}
	}
	c := FromRecord(rec)
	if opt&NormalizePath != 0 {
		c.SetPathname(normalizePathEncoding(rec.Pathname()))
	}
	if opt&(IgnoreFragments|IgnoreSearch) != 0 {
		c.rec.stripTrailingSpacesFromOpaquePath()
	}
	return c
}

// Href returns the serialized URL.
func (u *URL) Href() string { return u.rec.Href() }

// String returns the same as Href.
func (u *URL) String() string { return u.rec.Href() }

// Origin returns the serialized origin, "null" for opaque origins.
func (u *URL) Origin() string { return u.rec.Origin() }

// Protocol returns the scheme followed by ':'.
func (u *URL) Protocol() string { return u.rec.Protocol() }

// Username returns the percent-encoded username.
func (u *URL) Username() string { return u.rec.Username }

// Password returns the percent-encoded password.
func (u *URL) Password() string { return u.rec.Password }

// Host returns the hostname and, when set, ':' and the port.
func (u *URL) Host() string { return u.rec.HostPort() }

// Hostname returns the serialized host without the port.
func (u *URL) Hostname() string { return u.rec.Hostname() }

// Port returns the port in decimal, or "" when absent.
func (u *URL) Port() string { return u.rec.PortString() }

// Pathname returns the serialized path.
func (u *URL) Pathname() string { return u.rec.Pathname() }

// Search returns '?' and the query, or "" when the query is empty or absent.
func (u *URL) Search() string { return u.rec.Search() }

// Hash returns '#' and the fragment, or "" when the fragment is empty or absent.
func (u *URL) Hash() string { return u.rec.Hash() }

// SearchParams returns the live query parameter list. Changes made through
// it are written back to the URL's query.
func (u *URL) SearchParams() *SearchParams { return u.params }

// MarshalText implements encoding.TextMarshaler.
func (u *URL) MarshalText() ([]byte, error) { return []byte(u.Href()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URL) UnmarshalText(b []byte) error {
	rec, err := Parse(string(b), nil)
	if err != nil {
		return err
	}
	u.rec = rec
	if u.params == nil {
		u.params = &SearchParams{url: u}
	}
	u.syncParams()
	return nil
}

// SetHref replaces the whole URL. Unlike the other setters it reports a
// parse failure.
func (u *URL) SetHref(href string) error {
	rec, err := Parse(href, nil)
	if err != nil {
		return err
	}
	u.rec = rec
	u.syncParams()
	return nil
}

func (u *URL) override(input string, rec *Record, state ParseState) bool {
	out, err := ParseWithOverride(input, rec, state)
	if err != nil {
		return false
	}
	u.rec = out
	return true
}

// SetProtocol changes the scheme. Switching between special and
// non-special schemes is ignored, as is switching to file while
// credentials or a port are set.
func (u *URL) SetProtocol(v string) {
	u.override(v+":", u.rec, StateSchemeStart)
}

// SetUsername sets the username. It is ignored when the URL has no host,
// an empty host or the file scheme.
func (u *URL) SetUsername(v string) {
	if u.rec.cannotHaveUsernamePasswordPort() {
		return
	}
	u.rec.Username = percentEncodeString(v, userinfoSet, false)
}

// SetPassword sets the password under the same conditions as SetUsername.
func (u *URL) SetPassword(v string) {
	if u.rec.cannotHaveUsernamePasswordPort() {
		return
	}
	u.rec.Password = percentEncodeString(v, userinfoSet, false)
}

// SetHost sets the host and, after an unbracketed ':', the port. A
// hostname that does not parse leaves the URL unchanged; a port that does
// not parse leaves the new hostname with the old port.
func (u *URL) SetHost(v string) {
	if u.rec.Path.isOpaque {
		return
	}
	if u.rec.Scheme == "file" {
		u.override(v, u.rec, StateHost)
		return
	}
	name, port, hasPort := splitHostPort(v, u.rec.Special())
	if hasPort && name == "" {
		return
	}
	if !u.override(name, u.rec, StateHostname) || !hasPort {
		return
	}
	u.override(port, u.rec, StatePort)
}

// splitHostPort splits v at the first ':' outside brackets that comes
// before any path, query or fragment delimiter.
func splitHostPort(v string, special bool) (name, port string, ok bool) {
	inBrackets := false
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '[':
			inBrackets = true
		case c == ']':
			inBrackets = false
		case c == ':' && !inBrackets:
			return v[:i], v[i+1:], true
		case c == '/' || c == '?' || c == '#' || (special && c == '\\'):
			return v, "", false
		}
	}
	return v, "", false
}

// SetHostname sets the host, leaving the port alone. Input containing a
// port is ignored.
func (u *URL) SetHostname(v string) {
	if u.rec.Path.isOpaque {
		return
	}
	u.override(v, u.rec, StateHostname)
}

// SetPort sets the port. The empty string removes it; trailing non-digits
// are ignored ("8080abc" sets 8080).
func (u *URL) SetPort(v string) {
	if u.rec.cannotHaveUsernamePasswordPort() {
		return
	}
	if v == "" {
		u.rec.Port = Opt[uint16]{}
		return
	}
	u.override(v, u.rec, StatePort)
}

// SetPathname replaces the path. URLs with opaque paths are left unchanged.
func (u *URL) SetPathname(v string) {
	if u.rec.Path.isOpaque {
		return
	}
	rec := u.rec.Clone()
	rec.Path = SegmentedPath()
	u.override(v, rec, StatePathStart)
}

// SetSearch sets the query. A leading '?' is optional; "" removes the
// query.
func (u *URL) SetSearch(v string) {
	if v == "" {
		u.rec.Query = Opt[string]{}
		u.params.list = nil
		u.rec.stripTrailingSpacesFromOpaquePath()
		return
	}
	v = strings.TrimPrefix(v, "?")
	rec := u.rec.Clone()
	rec.Query = Some("")
	if u.override(v, rec, StateQuery) {
		u.params.list = parseURLEncoded(v)
	}
}

// SetHash sets the fragment. A leading '#' is optional; "" removes the
// fragment.
func (u *URL) SetHash(v string) {
	if v == "" {
		u.rec.Fragment = Opt[string]{}
		u.rec.stripTrailingSpacesFromOpaquePath()
		return
	}
	v = strings.TrimPrefix(v, "#")
	rec := u.rec.Clone()
	rec.Fragment = Some("")
	u.override(v, rec, StateFragment)
}
