package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/utils/timeutil"
)

func authHeaderFor(t *testing.T, conf HTTPConfig) string {
	t.Helper()
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client, err := conf.Build()
	require.NoError(t, err)
	res, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = res.Body.Close()
	return got
}

func TestBuildNoAuth(t *testing.T) {
	assert.Empty(t, authHeaderFor(t, HTTPConfig{}))
}

func TestBuildBasicAuth(t *testing.T) {
	header := authHeaderFor(t, HTTPConfig{Username: "user", Password: "pass"})
	// base64("user:pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", header)
}

func TestTokenTakesPrecedenceOverBasicAuth(t *testing.T) {
	header := authHeaderFor(t, HTTPConfig{
		Username: "user",
		Password: "pass",
		Token:    "secret-token",
	})
	assert.Equal(t, "Bearer secret-token", header)
}

func TestBuildAppliesTimeoutAndTLSConfig(t *testing.T) {
	conf := HTTPConfig{
		HTTPTimeout: timeutil.Duration(5 * time.Second),
		SkipVerify:  true,
	}
	client, err := conf.Build()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}
