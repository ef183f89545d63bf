package urlstd

// ParseState is a state of the URL parser. Passing one to ParseWithOverride
// starts the state machine mid-stream, which is how component setters such
// as URL.SetHostname are implemented.
type ParseState uint8

const (
	stateNone ParseState = iota
	StateSchemeStart
	StateScheme
	StateNoScheme
	StateSpecialRelativeOrAuthority
	StatePathOrAuthority
	StateRelative
	StateRelativeSlash
	StateSpecialAuthoritySlashes
	StateSpecialAuthorityIgnoreSlashes
	StateAuthority
	StateHost
	StateHostname
	StatePort
	StateFile
	StateFileSlash
	StateFileHost
	StatePathStart
	StatePath
	StateOpaquePath
	StateQuery
	StateFragment
)

var stateNames = [...]string{
	stateNone:                          "none",
	StateSchemeStart:                   "scheme start",
	StateScheme:                        "scheme",
	StateNoScheme:                      "no scheme",
	StateSpecialRelativeOrAuthority:    "special relative or authority",
	StatePathOrAuthority:               "path or authority",
	StateRelative:                      "relative",
	StateRelativeSlash:                 "relative slash",
	StateSpecialAuthoritySlashes:       "special authority slashes",
	StateSpecialAuthorityIgnoreSlashes: "special authority ignore slashes",
	StateAuthority:                     "authority",
	StateHost:                          "host",
	StateHostname:                      "hostname",
	StatePort:                          "port",
	StateFile:                          "file",
	StateFileSlash:                     "file slash",
	StateFileHost:                      "file host",
	StatePathStart:                     "path start",
	StatePath:                          "path",
	StateOpaquePath:                    "opaque path",
	StateQuery:                         "query",
	StateFragment:                      "fragment",
}

func (s ParseState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
