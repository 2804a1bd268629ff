package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func echoUpstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", name)
		_, _ = io.WriteString(w, name+":"+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestForwardsByPrefix(t *testing.T) {
	auth := echoUpstream(t, "auth")
	user := echoUpstream(t, "user")

	gw, err := New(auth.URL, user.URL, zap.NewNop())
	require.NoError(t, err)
	front := httptest.NewServer(gw)
	t.Cleanup(front.Close)

	tests := []struct {
		path string
		want string
	}{
		{"/auth/users/login", "auth:/users/login"},
		{"/auth/health", "auth:/health"},
		{"/user/users/followers/abc", "user:/users/followers/abc"},
	}
	for _, tc := range tests {
		resp, err := http.Get(front.URL + tc.path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.path)
		require.Equal(t, tc.want, string(body), tc.path)
	}
}

func TestUnknownPrefix(t *testing.T) {
	auth := echoUpstream(t, "auth")
	user := echoUpstream(t, "user")

	gw, err := New(auth.URL, user.URL, zap.NewNop())
	require.NoError(t, err)
	front := httptest.NewServer(gw)
	t.Cleanup(front.Close)

	resp, err := http.Get(front.URL + "/nope/anything")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close() // freed port, nothing listening

	user := echoUpstream(t, "user")
	gw, err := New(dead.URL, user.URL, zap.NewNop())
	require.NoError(t, err)
	front := httptest.NewServer(gw)
	t.Cleanup(front.Close)

	resp, err := http.Get(front.URL + "/auth/users/login")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Contains(t, string(body), "upstream unavailable")

	// the healthy upstream keeps working
	resp, err = http.Get(front.URL + "/user/users/followers/abc")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBadUpstreamURL(t *testing.T) {
	_, err := New("://not-a-url", "http://localhost:1", zap.NewNop())
	require.Error(t, err)
}
