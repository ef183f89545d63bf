package urlstd

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/idna"
)

// urlProfile is UTS #46 processing configured the way the URL Standard
// requires: nontransitional, no STD3 rules, no hyphen or DNS length checks,
// with the joiner and bidi rules enabled. Built once on first use.
var urlProfile = sync.OnceValue(func() *idna.Profile {
	return idna.New(
		idna.MapForLookup(),
		idna.Transitional(false),
		idna.StrictDomainName(false),
		idna.CheckHyphens(false),
		idna.CheckJoiners(true),
		idna.BidiRule(),
		idna.VerifyDNSLength(false),
	)
})

// domainToASCII runs IDNA ToASCII on a percent-decoded domain. Pure ASCII
// input without "xn--" labels only needs lowercasing.
func domainToASCII(domain string) (string, error) {
	var result string
	if isASCII(domain) && !hasPunycodeLabel(domain) {
		result = strings.ToLower(domain)
	} else {
		out, err := urlProfile().ToASCII(domain)
		if err != nil {
			return "", fmt.Errorf("%w: domain %q: %v", ErrInvalidURL, domain, err)
		}
		result = out
	}
	if result == "" {
		return "", fmt.Errorf("%w: domain %q is empty after mapping", ErrInvalidURL, domain)
	}
	if i := strings.IndexFunc(result, isForbiddenDomainCodePoint); i >= 0 {
		return "", fmt.Errorf("%w: domain %q contains forbidden code point %q", ErrInvalidURL, result, result[i])
	}
	return result, nil
}

// DomainToASCII converts a Unicode domain to its ASCII (Punycode) form.
// It returns "" if the domain is invalid.
func DomainToASCII(domain string) string {
	out, err := domainToASCII(domain)
	if err != nil {
		return ""
	}
	return out
}

// DomainToUnicode converts an ASCII domain with "xn--" labels back to
// Unicode. Errors are not fatal: labels that fail to decode are kept as is.
func DomainToUnicode(domain string) string {
	out, _ := urlProfile().ToUnicode(domain)
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func hasPunycodeLabel(domain string) bool {
	for _, label := range strings.Split(domain, ".") {
		if len(label) >= 4 && strings.EqualFold(label[:4], "xn--") {
			return true
		}
	}
	return false
}
