package urlstd

import (
	"strconv"
	"strings"
)

// Href serializes r. It is the inverse of Parse: Parse(r.Href(), nil)
// yields a record equal to r.
func (r *Record) Href() string { return r.serialize(false) }

// String implements fmt.Stringer.
func (r *Record) String() string { return r.Href() }

func (r *Record) serialize(excludeFragment bool) string {
	var b strings.Builder
	b.WriteString(r.Scheme)
	b.WriteByte(':')
	if r.Host.Valid {
		b.WriteString("//")
		if r.includesCredentials() {
			b.WriteString(r.Username)
			if r.Password != "" {
				b.WriteByte(':')
				b.WriteString(r.Password)
			}
			b.WriteByte('@')
		}
		b.WriteString(r.Host.Value)
		if r.Port.Valid {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(r.Port.Value)))
		}
	} else if !r.Path.isOpaque && len(r.Path.segments) > 1 && r.Path.segments[0] == "" {
		// "web+demo:/.//not-a-host/" must not reparse with a host.
		b.WriteString("/.")
	}
	b.WriteString(r.Pathname())
	if r.Query.Valid {
		b.WriteByte('?')
		b.WriteString(r.Query.Value)
	}
	if !excludeFragment && r.Fragment.Valid {
		b.WriteByte('#')
		b.WriteString(r.Fragment.Value)
	}
	return b.String()
}

// Origin returns the ASCII serialization of r's origin, or "null" for an
// opaque origin.
func (r *Record) Origin() string {
	switch r.Scheme {
	case "blob":
		inner, err := Parse(r.Pathname(), nil)
		if err != nil || (inner.Scheme != "http" && inner.Scheme != "https") {
			return "null"
		}
		return inner.Origin()
	case "ftp", "http", "https", "ws", "wss":
		s := r.Scheme + "://" + r.Host.Value
		if r.Port.Valid {
			s += ":" + strconv.Itoa(int(r.Port.Value))
		}
		return s
	default:
		return "null"
	}
}

// Protocol returns the scheme followed by ':'.
func (r *Record) Protocol() string { return r.Scheme + ":" }

// HostPort returns the host and, if present, ":port".
func (r *Record) HostPort() string {
	if !r.Host.Valid {
		return ""
	}
	if !r.Port.Valid {
		return r.Host.Value
	}
	return r.Host.Value + ":" + strconv.Itoa(int(r.Port.Value))
}

// Hostname returns the serialized host, or "" if there is none.
func (r *Record) Hostname() string { return r.Host.Value }

// PortString returns the port in decimal, or "" if there is none.
func (r *Record) PortString() string {
	if !r.Port.Valid {
		return ""
	}
	return strconv.Itoa(int(r.Port.Value))
}

// Pathname returns the serialized path.
func (r *Record) Pathname() string {
	if r.Path.isOpaque {
		return r.Path.opaque
	}
	var b strings.Builder
	for _, seg := range r.Path.segments {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

// Search returns "?query", or "" when the query is absent or empty.
func (r *Record) Search() string {
	if !r.Query.Valid || r.Query.Value == "" {
		return ""
	}
	return "?" + r.Query.Value
}

// Hash returns "#fragment", or "" when the fragment is absent or empty.
func (r *Record) Hash() string {
	if !r.Fragment.Valid || r.Fragment.Value == "" {
		return ""
	}
	return "#" + r.Fragment.Value
}
