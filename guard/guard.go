// Package guard screens outbound fetches. It validates URLs against
// private-network targets before a socket opens and paces calls per source.
package guard

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/fwojciec/docserve"
)

// Ensure Validator implements docserve.URLValidator at compile time.
var _ docserve.URLValidator = (*Validator)(nil)

// Resolver looks up IP addresses for a hostname. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validator rejects URLs that do not use http(s) or whose hostname resolves
// to a loopback, private, link-local or unspecified address.
type Validator struct {
	resolver Resolver
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver sets the DNS resolver. Defaults to net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(v *Validator) {
		v.resolver = r
	}
}

// NewValidator creates a new Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the URL scheme and resolves the hostname. The error
// message is deliberately generic: it must not echo which classification
// (loopback, private range, meta-address) triggered the denial.
func (v *Validator) Validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
	}

	host := u.Hostname()
	if host == "" || strings.EqualFold(host, "localhost") {
		return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
	}

	// Literal IP addresses are checked directly, without a DNS round trip.
	if ip := net.ParseIP(host); ip != nil {
		if blockedIP(ip) {
			return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
		}
		return nil
	}

	addrs, err := v.resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
	}

	// Every resolved address must be public; a single private answer
	// blocks the URL (DNS rebinding defense).
	for _, addr := range addrs {
		if blockedIP(addr.IP) {
			return docserve.Errorf(docserve.ESECURITY, "URL not allowed")
		}
	}

	return nil
}

// blockedIP reports whether the address must never be dialed: loopback
// (127.0.0.0/8, ::1), RFC 1918 private ranges, link-local, and the
// meta-addresses 0.0.0.0 and ::.
func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
