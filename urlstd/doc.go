// Package urlstd implements URL parsing and serialization as defined by the
// WHATWG URL Standard, the algorithm browsers and web runtimes use.
//
// Design
//
//   - Records: Parse turns a string into a Record holding the serialized
//     components. Optional components (host, port, query, fragment) use Opt,
//     so "absent" and "present but empty" stay distinct. The path is either
//     opaque ("mailto:x") or a list of segments, fixed at parse time.
//
//   - State machine: the parser is the standard's state machine over code
//     points. ParseWithOverride starts it in a given state and merges the
//     result into a copy of an existing record; the URL setters are built on
//     it. Records passed in are never modified.
//
//   - Hosts: special URLs (http, https, ws, wss, ftp, file) get domain
//     processing: percent-decoding, IDNA ToASCII (UTS #46, nontransitional)
//     and IPv4 recognition including octal and hex parts. Bracketed hosts are
//     IPv6 and are serialized in canonical compressed form. Other schemes get
//     opaque hosts.
//
//   - Errors: every failure wraps ErrInvalidURL; no partial record is
//     returned.
//
// Basic usage
//
//	u, err := urlstd.New("../c?x=1#frag", "https://example.org/a/b")
//	if err != nil {
//	    return err
//	}
//	u.Href()     // "https://example.org/c?x=1#frag"
//	u.Origin()   // "https://example.org"
//	u.SearchParams().Append("y", "a b")
//	u.Search()   // "?x=1&y=a+b"
//
// Working with records
//
//	rec, err := urlstd.Parse("HTTP://EXAMPLE.com:80/%7Efoo/./bar", nil)
//	// rec.Scheme == "http", rec.Host.Value == "example.com",
//	// rec.Port.Valid == false, rec.Pathname() == "/%7Efoo/bar"
//
// URL values are not safe for concurrent mutation. Records and the package
// functions are safe for concurrent use.
package urlstd
