package httpclient

import (
	"crypto/tls"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/common/auth"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/utils/timeutil"
)

// HTTPConfig can be embedded inside a server config.
type HTTPConfig struct {
	// HTTP timeout duration for both read and writes. This should be a
	// duration string that is accepted by https://golang.org/pkg/time/#ParseDuration
	HTTPTimeout timeutil.Duration `yaml:"httpTimeout" default:"30s"`

	// Basic Auth username to use on each request, if any.
	Username string `yaml:"username"`
	// Basic Auth password to use on each request, if any.
	Password string `yaml:"password" neverLog:"true"`

	// Bearer token to use on each request, if any.  Takes precedence
	// over basic auth when both are configured.
	Token string `yaml:"token" neverLog:"true"`

	// If true, the server's TLS cert will not be verified.
	SkipVerify bool `yaml:"skipVerify"`

	// If true, requests are tunneled through a local SOCKS5 proxy.
	UseProxy bool `yaml:"useProxy"`
	// Address of the SOCKS5 proxy to use when useProxy is set.
	ProxyAddress string `yaml:"proxyAddress" default:"localhost:8157"`
}

// Build returns a configured http.Client
func (h *HTTPConfig) Build() (*http.Client, error) {
	return h.BuildWithJar(nil)
}

// BuildWithJar returns a configured http.Client carrying the given
// cookie jar.  A nil jar leaves cookie handling disabled.
func (h *HTTPConfig) BuildWithJar(jar http.CookieJar) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: h.SkipVerify,
	}

	if h.UseProxy {
		dialer, err := proxy.SOCKS5("tcp", h.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, errors.Wrapf(err, "could not configure SOCKS5 proxy at %s", h.ProxyAddress)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.Errorf("SOCKS5 dialer for %s does not support context dialing", h.ProxyAddress)
		}
		transport.DialContext = contextDialer.DialContext
		// The proxy is all-or-nothing, so the environment-derived HTTP
		// proxy settings must not apply on top of it.
		transport.Proxy = nil
	}

	var roundTripper http.RoundTripper = transport

	switch {
	case h.Token != "":
		roundTripper = &auth.TransportWithTokenAuth{
			RoundTripper: roundTripper,
			Token:        h.Token,
		}
	case h.Username != "":
		roundTripper = &auth.TransportWithBasicAuth{
			RoundTripper: roundTripper,
			Username:     h.Username,
			Password:     h.Password,
		}
	}

	return &http.Client{
		Timeout:   h.HTTPTimeout.AsDuration(),
		Transport: roundTripper,
		Jar:       jar,
	}, nil
}
