package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokens records what the client did with the session.
type fakeTokens struct {
	token  string
	purged bool
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Purge()        { f.purged = true }

func newTestClient(t *testing.T, serverURL string, tokens TokenSource) *Client {
	t.Helper()
	c, err := NewClient(serverURL+"/api", tokens, nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("not-a-url", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, &fakeTokens{token: "tok-123"})
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, &fakeTokens{})
	require.NoError(t, c.Health(context.Background()))
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedPurgesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "stale"}
	c := newTestClient(t, server.URL, tokens)

	_, err := c.ListJobs(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, tokens.purged)
}

func TestClient_APIErrorCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "CSV file is empty"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, err := c.ListJobs(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "CSV file is empty", apiErr.Detail)
}

func TestClient_APIErrorFlaskShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": "credential already exists"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, err := c.ListCredentials(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "credential already exists", apiErr.Detail)
}

func TestDetail(t *testing.T) {
	apiErr := &APIError{StatusCode: 400, Detail: "bad csv"}
	assert.Equal(t, "bad csv", Detail(apiErr, "Failed to create job"))
	assert.Equal(t, "Failed to create job", Detail(assert.AnError, "Failed to create job"))
	assert.Equal(t, ErrUnauthorized.Error(), Detail(ErrUnauthorized, "Failed to create job"))
	assert.Equal(t, "Failed to create job", Detail(&APIError{StatusCode: 500}, "Failed to create job"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{StatusCode: http.StatusNotFound}))
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsNotFound(ErrUnauthorized))
}

func TestDownload_ProxyPathUsesHostRootWithToken(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, &fakeTokens{token: "tok"})
	data, contentType, err := c.Download(context.Background(), "/files/abc.pdf")
	require.NoError(t, err)
	// Proxy paths resolve against the host root, not the /api base.
	assert.Equal(t, "/files/abc.pdf", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestDownload_AbsoluteURLSkipsToken(t *testing.T) {
	var gotAuth string
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer storage.Close()

	c := newTestClient(t, "http://127.0.0.1:1", &fakeTokens{token: "tok"})
	data, _, err := c.Download(context.Background(), storage.URL+"/blob/bill.pdf")
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "pre-signed URLs must not leak the bearer token")
	assert.NotEmpty(t, data)
}

func TestDownload_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "No PDF found"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, _, err := c.Download(context.Background(), "/files/missing.pdf")
	assert.True(t, IsNotFound(err))
}
