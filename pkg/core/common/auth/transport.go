package auth

import "net/http"

// TransportWithBasicAuth injects a Basic Authorization header into every
// request that passes through it.
type TransportWithBasicAuth struct {
	http.RoundTripper
	Username string
	Password string
}

// RoundTrip implements http.RoundTripper
func (t *TransportWithBasicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	return t.RoundTripper.RoundTrip(req)
}

// TransportWithTokenAuth injects a Bearer token Authorization header into
// every request that passes through it.  When a server has both a token
// and basic credentials configured the token transport is installed
// instead of the basic one, so the token always wins.
type TransportWithTokenAuth struct {
	http.RoundTripper
	Token string
}

// RoundTrip implements http.RoundTripper
func (t *TransportWithTokenAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.Token)
	return t.RoundTripper.RoundTrip(req)
}
