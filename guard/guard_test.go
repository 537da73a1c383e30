package guard_test

import (
	"context"
	"net"
	"testing"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticResolver resolves every hostname to a fixed set of addresses.
type staticResolver struct {
	addrs map[string][]string
}

func (r *staticResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := r.addrs[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	var out []net.IPAddr
	for _, ip := range ips {
		out = append(out, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return out, nil
}

func newValidator(addrs map[string][]string) *guard.Validator {
	return guard.NewValidator(guard.WithResolver(&staticResolver{addrs: addrs}))
}

// Story: SSRF Guard
// Blocked URLs must be rejected before any socket opens, and the denial
// message must not reveal why the target was blocked.

func TestValidator_AllowsPublicHosts(t *testing.T) {
	t.Parallel()

	v := newValidator(map[string][]string{"electronjs.org": {"104.18.20.201"}})

	err := v.Validate(context.Background(), "https://electronjs.org/docs/api")

	assert.NoError(t, err)
}

func TestValidator_RejectsBlockedTargets(t *testing.T) {
	t.Parallel()

	v := newValidator(map[string][]string{
		"internal.corp": {"10.1.2.3"},
		"public.corp":   {"104.18.20.201", "192.168.1.5"}, // one private answer blocks
	})

	tests := []struct {
		name string
		url  string
	}{
		{"non-http scheme", "file:///etc/passwd"},
		{"gopher scheme", "gopher://example.com"},
		{"literal localhost", "http://localhost:8080/admin"},
		{"loopback literal", "http://127.0.0.1/"},
		{"loopback range", "http://127.8.9.10/"},
		{"ipv6 loopback", "http://[::1]/"},
		{"meta address", "http://0.0.0.0/"},
		{"ipv6 meta address", "http://[::]/"},
		{"ten slash eight", "http://10.0.0.5/"},
		{"one seventy two range", "http://172.16.0.1/"},
		{"one ninety two range", "http://192.168.0.1/"},
		{"hostname resolving privately", "https://internal.corp/docs"},
		{"hostname with mixed answers", "https://public.corp/docs"},
		{"unresolvable hostname", "https://nxdomain.example/"},
		{"empty host", "https:///docs"},
		{"garbage", "://not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(context.Background(), tt.url)

			require.Error(t, err)
			assert.Equal(t, docserve.ESECURITY, docserve.ErrorCode(err))
			// The message must stay generic regardless of the trigger.
			assert.Equal(t, "URL not allowed", docserve.ErrorMessage(err))
		})
	}
}

func TestValidator_LiteralIPSkipsDNS(t *testing.T) {
	t.Parallel()

	// Resolver knows nothing; a public literal IP must still pass.
	v := newValidator(map[string][]string{})

	err := v.Validate(context.Background(), "http://104.18.20.201/docs")

	assert.NoError(t, err)
}
