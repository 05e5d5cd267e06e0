package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var ErrNotAbsoluteURL = errors.New("not an absolute url")

// schemes that must carry a host to be considered valid, matching how
// browsers reject "http://" or "https:///path".
var hostRequired = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// Target is a URL broken into the parts the heuristics look at.
type Target struct {
	// Raw is the URL exactly as supplied.
	Raw string

	// Hostname is lower-cased with any port and IPv6 brackets stripped.
	Hostname string

	// Domain is Hostname with a single leading "www." removed.
	Domain string

	// Pathname is the escaped path, "/" when a host is present and the path is empty.
	Pathname string

	// Protocol is the scheme followed by a colon, e.g. "https:".
	Protocol string
}

// ParseTarget parses raw into a Target. Anything that is not an absolute URL
// is rejected.
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	var escErr url.EscapeError
	if errors.As(err, &escErr) {
		// browsers keep a stray "%" in the path, query or fragment as is
		if fixed, ok := escapeStrayPercents(raw); ok {
			u, err = url.Parse(fixed)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't parse url %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrNotAbsoluteURL, raw)
	}

	hostname := strings.ToLower(u.Hostname())
	if hostRequired[u.Scheme] && hostname == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrNotAbsoluteURL, raw)
	}

	pathname := u.EscapedPath()
	if pathname == "" && hostname != "" {
		pathname = "/"
	}

	return &Target{
		Raw:      raw,
		Hostname: hostname,
		Domain:   strings.TrimPrefix(hostname, "www."),
		Pathname: pathname,
		Protocol: u.Scheme + ":",
	}, nil
}

// escapeStrayPercents rewrites every "%" after the authority that does not
// start a valid escape as "%25". The host is left alone so a bad escape there
// still fails to parse.
func escapeStrayPercents(raw string) (string, bool) {
	start := strings.Index(raw, ":") + 1
	if i := strings.Index(raw, "://"); i >= 0 {
		j := strings.IndexAny(raw[i+3:], "/?#")
		if j < 0 {
			return raw, false
		}
		start = i + 3 + j
	}

	var b strings.Builder
	b.WriteString(raw[:start])
	changed := false
	for k := start; k < len(raw); k++ {
		if raw[k] == '%' && (k+2 >= len(raw) || !isHex(raw[k+1]) || !isHex(raw[k+2])) {
			b.WriteString("%25")
			changed = true
			continue
		}
		b.WriteByte(raw[k])
	}
	return b.String(), changed
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// Labels returns the dot-separated labels of the hostname.
func (t *Target) Labels() []string {
	return strings.Split(t.Hostname, ".")
}

// HasPrefixAny reports whether s starts with any of prefixes.
func HasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// HasSuffixAny returns the first suffix s ends with, or "".
func HasSuffixAny(s string, suffixes []string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return suf
		}
	}
	return ""
}

// ContainsAny returns the first needle found in s, or "".
func ContainsAny(s string, needles []string) string {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return n
		}
	}
	return ""
}

// IsASCII reports whether s consists only of 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// PunycodeHost returns the ASCII (IDNA) form of host. It falls back to host
// unchanged when the conversion fails.
func PunycodeHost(host string) string {
	ascii, err := idna.Punycode.ToASCII(host)
	if err != nil {
		return host
	}
	return ascii
}

// ResolveReference resolves ref against base and returns the absolute URL.
func ResolveReference(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse reference %q: %w", ref, err)
	}
	if base == nil {
		return r, nil
	}
	return base.ResolveReference(r), nil
}
