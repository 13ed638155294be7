package bofh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing url", Options{}, "url is required"},
		{"bad scheme", Options{URL: "ftp://bofh"}, "scheme must be http or https"},
		{"missing CA", Options{URL: "https://bofh", CAFile: "/nonexistent/ca.pem"}, "read CA file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_LoginAndLogout(t *testing.T) {
	f := newFakeBofhd()
	c := newTestClient(t, f)

	require.NoError(t, c.Login(t.Context(), "bootstrap_account", "secret"))
	assert.Equal(t, "sess-1", c.Session())
	assert.True(t, f.sessions["sess-1"])

	require.NoError(t, c.Logout(t.Context()))
	assert.Empty(t, c.Session())
	assert.False(t, f.sessions["sess-1"])

	require.NoError(t, c.Logout(t.Context()), "logout without a session is a no-op")
}

func TestClient_LoginRejected(t *testing.T) {
	c := newTestClient(t, newFakeBofhd())

	err := c.Login(t.Context(), "jdoe", "wrong")
	require.Error(t, err)
	var f *Fault
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "Unknown username or password", f.Message())
	assert.Empty(t, c.Session())
}

func TestClient_RequiresSession(t *testing.T) {
	c := newTestClient(t, newFakeBofhd())

	_, err := c.RunCommand(t.Context(), "user_info", "jdoe")
	assert.EqualError(t, err, "not logged in")
}

func TestClient_RunCommand(t *testing.T) {
	f := newFakeBofhd()
	c, _ := loggedInClient(t, f)

	v, err := c.RunCommand(t.Context(), "user_info", "jdoe")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"username": "jdoe", "uid": 1001, "spread": "NIS_user@uio"}, v)
	assert.Equal(t, []any{"user_info", "jdoe"}, f.runs[0])
}

func TestClient_ReauthenticatesOnceOnExpiredSession(t *testing.T) {
	f := newFakeBofhd()
	c, _ := loggedInClient(t, f)

	f.expireNext = true
	v, err := c.RunCommand(t.Context(), "user_info", "jdoe")
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, 2, f.logins)
	assert.Equal(t, "sess-2", c.Session())
}

func TestClient_NoReauthWithoutPassword(t *testing.T) {
	f := newFakeBofhd()
	c, _ := loggedInClient(t, f)
	c.password = ""

	f.expireNext = true
	_, err := c.RunCommand(t.Context(), "user_info", "jdoe")
	assert.True(t, IsSessionExpired(err))
	assert.Equal(t, 1, f.logins)
}

func TestClient_Help(t *testing.T) {
	c, _ := loggedInClient(t, newFakeBofhd())

	text, err := c.Help(t.Context(), "user")
	require.NoError(t, err)
	assert.Equal(t, "help user", text)

	text, err = c.Help(t.Context(), "arg_help", "account_name")
	require.NoError(t, err)
	assert.Equal(t, "Help for account_name", text)
}

func TestClient_FormatSuggestionIsCached(t *testing.T) {
	f := newFakeBofhd()
	c, _ := loggedInClient(t, f)

	first, err := c.FormatSuggestion(t.Context(), "user_info")
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := c.FormatSuggestion(t.Context(), "user_info")
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, 1, countCalls(f, "get_format_suggestion"))

	none, err := c.FormatSuggestion(t.Context(), "user_password")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestClient_HTTPErrorStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/RPC2", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{URL: srv.URL + "/RPC2", Logger: testLogger()})
	require.NoError(t, err)

	err = c.Login(t.Context(), "jdoe", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503: maintenance")
}

func TestClient_Timeout(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/RPC2", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{URL: srv.URL + "/RPC2", Timeout: 50 * time.Millisecond, Logger: testLogger()})
	require.NoError(t, err)

	err = c.Login(context.Background(), "jdoe", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login as jdoe")
}
