package catalog

import "net/url"

// Relay is a public request-forwarding endpoint used when the trusted backend
// proxy is unreachable and direct calls are blocked. Relays are tried in the
// order they are configured; the first success wins.
type Relay struct {
	// Prefix is the relay's base URL. The target URL is appended
	// percent-encoded, e.g. "https://corsproxy.io/?" + escape(target).
	Prefix string
}

// Wrap returns the relay URL that forwards to target. The zero Relay performs
// no forwarding and leaves the target untouched.
func (r Relay) Wrap(target string) string {
	if r.Prefix == "" {
		return target
	}
	return r.Prefix + url.QueryEscape(target)
}

// RelaysFrom builds the ordered relay chain from configured endpoint prefixes.
func RelaysFrom(prefixes []string) []Relay {
	relays := make([]Relay, len(prefixes))
	for i, p := range prefixes {
		relays[i] = Relay{Prefix: p}
	}
	return relays
}
