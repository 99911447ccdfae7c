package registry_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stitch/internal/adapters/registry"
	"go.trai.ch/stitch/internal/core/domain"
)

// MockRoundTripper is a helper to mock http.Client behavior.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{RoundTripFunc: handler},
	}
}

func TestHTTP_Fetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/r/button.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name": "button", "files": [{"content": "btn"}], "dependencies": ["clsx@^2.1.0"]}`)
	})
	mux.HandleFunc("/r/broken.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"files": "nope"}`)
	})
	mux.HandleFunc("/r/flaky.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reg := registry.NewHTTP(srv.URL+"/r/", 5*time.Second)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		rec, err := reg.Fetch(ctx, "button")
		require.NoError(t, err)
		assert.Equal(t, []string{"btn"}, rec.Sources)
		assert.Equal(t, domain.Manifest{"clsx": "^2.1.0"}, rec.Dependencies)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, err := reg.Fetch(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrComponentNotFound)
	})

	t.Run("invalid record", func(t *testing.T) {
		t.Parallel()

		_, err := reg.Fetch(ctx, "broken")
		require.ErrorIs(t, err, domain.ErrInvalidRecord)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		_, err := reg.Fetch(ctx, "flaky")
		require.ErrorIs(t, err, domain.ErrRegistryTransport)
		assert.Contains(t, err.Error(), "unexpected status 502")
		assert.Equal(t, domain.WarningTransport, domain.ClassifyFetchError(err))
	})

	t.Run("path traversal", func(t *testing.T) {
		t.Parallel()

		_, err := reg.Fetch(ctx, "../secret")
		require.ErrorIs(t, err, domain.ErrComponentNotFound)
	})
}

func TestHTTP_FetchTransportError(t *testing.T) {
	t.Parallel()

	var gotURL string
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return nil, errors.New("connection refused")
	})

	reg := registry.NewHTTPWithClient("https://registry.example.com", client)
	_, err := reg.Fetch(context.Background(), "card")

	require.ErrorIs(t, err, domain.ErrRegistryTransport)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "https://registry.example.com/card.json", gotURL)
}

func TestHTTP_FetchRequestHeaders(t *testing.T) {
	t.Parallel()

	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"files": [{"content": "x"}]}`)),
			Header:     make(http.Header),
		}, nil
	})

	reg := registry.NewHTTPWithClient("https://registry.example.com/", client)
	rec, err := reg.Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", rec.Name)
}
