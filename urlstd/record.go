package urlstd

import "slices"

// Opt is an optional URL component. The zero value is "absent", which is
// distinct from a present-but-empty value (for example "https://h/?" has an
// empty query while "https://h/" has none).
type Opt[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Valid: true} }

// Path is either an opaque path (a single string, used by URLs such as
// "data:" or "mailto:") or a list of segments. Which one a record carries is
// decided once during parsing and never changes afterwards.
type Path struct {
	opaque   string
	segments []string
	isOpaque bool
}

// OpaquePath returns an opaque path holding s.
func OpaquePath(s string) Path { return Path{opaque: s, isOpaque: true} }

// SegmentedPath returns a hierarchical path made of segs.
func SegmentedPath(segs ...string) Path { return Path{segments: slices.Clone(segs)} }

// IsOpaque reports whether the path is an opaque string.
func (p Path) IsOpaque() bool { return p.isOpaque }

// Opaque returns the opaque path string ("" for segmented paths).
func (p Path) Opaque() string { return p.opaque }

// Segments returns a copy of the path segments (nil for opaque paths).
func (p Path) Segments() []string { return slices.Clone(p.segments) }

// Len returns the number of segments (0 for opaque paths).
func (p Path) Len() int { return len(p.segments) }

func (p Path) clone() Path {
	return Path{opaque: p.opaque, segments: slices.Clone(p.segments), isOpaque: p.isOpaque}
}

// Record is a parsed URL as defined by the URL Standard.
//
// Components are stored in their serialized (percent-encoded) form. Host is
// absent only for URLs that cannot have one, e.g. "mailto:x" or "a:/b".
// Port is absent when it equals the scheme's default port.
type Record struct {
	Scheme   string
	Username string
	Password string
	Host     Opt[string]
	Port     Opt[uint16]
	Path     Path
	Query    Opt[string]
	Fragment Opt[string]
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Path = r.Path.clone()
	return &c
}

// Special reports whether r has one of the special schemes
// (ftp, file, http, https, ws, wss).
func (r *Record) Special() bool { return isSpecialScheme(r.Scheme) }

// HostType classifies the record's host.
func (r *Record) HostType() HostType {
	if !r.Host.Valid {
		return HostNone
	}
	h := r.Host.Value
	switch {
	case h == "":
		return HostEmpty
	case h[0] == '[':
		return HostIPv6
	case !r.Special():
		return HostOpaque
	case isDottedQuad(h):
		return HostIPv4
	default:
		return HostDomain
	}
}

// HostType is the kind of host a Record carries.
type HostType uint8

const (
	HostNone HostType = iota
	HostEmpty
	HostDomain
	HostIPv4
	HostIPv6
	HostOpaque
)

func (r *Record) includesCredentials() bool {
	return r.Username != "" || r.Password != ""
}

func (r *Record) cannotHaveUsernamePasswordPort() bool {
	return !r.Host.Valid || r.Host.Value == "" || r.Scheme == "file"
}

// shortenPath removes the last path segment, except a lone normalized
// Windows drive letter of a file URL.
func (r *Record) shortenPath() {
	segs := r.Path.segments
	if r.Scheme == "file" && len(segs) == 1 && isNormalizedWindowsDriveLetter(segs[0]) {
		return
	}
	if len(segs) > 0 {
		r.Path.segments = segs[:len(segs)-1]
	}
}

func (r *Record) appendSegment(s string) {
	r.Path.segments = append(r.Path.segments, s)
}

// stripTrailingSpacesFromOpaquePath trims U+0020 from the end of an opaque
// path once neither query nor fragment follows it.
func (r *Record) stripTrailingSpacesFromOpaquePath() {
	if !r.Path.isOpaque || r.Fragment.Valid || r.Query.Valid {
		return
	}
	s := r.Path.opaque
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	r.Path.opaque = s
}

var specialSchemes = map[string]int{
	"ftp":   21,
	"file":  -1,
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

func isSpecialScheme(s string) bool {
	_, ok := specialSchemes[s]
	return ok
}

// DefaultPort returns the default port of a special scheme. ok is false for
// "file" and for non-special schemes.
func DefaultPort(scheme string) (port uint16, ok bool) {
	p, found := specialSchemes[scheme]
	if !found || p < 0 {
		return 0, false
	}
	return uint16(p), true
}

func isDottedQuad(h string) bool {
	parts := 0
	digits := 0
	for i := 0; i < len(h); i++ {
		switch c := h[i]; {
		case c == '.':
			if digits == 0 {
				return false
			}
			parts++
			digits = 0
		case isASCIIDigit(rune(c)):
			digits++
		default:
			return false
		}
	}
	return parts == 3 && digits > 0
}
