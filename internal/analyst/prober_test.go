package analyst

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber()

	status, err := p.Probe(context.Background(), srv.URL+"/listing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = p.Probe(context.Background(), srv.URL+"/gone")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProbeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	p := NewProber()
	_, err := p.Probe(context.Background(), srv.URL)
	require.Error(t, err)
}
