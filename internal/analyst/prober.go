package analyst

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Prober checks whether a lead's URL is reachable.
type Prober interface {
	// Probe issues a lightweight existence check and returns the HTTP
	// status code, or an error for network-level failures.
	Probe(ctx context.Context, url string) (int, error)
}

// httpProber probes with a HEAD request, following redirects, under a
// short fixed timeout.
type httpProber struct {
	http *http.Client
}

// NewProber creates the default HTTP liveness prober.
func NewProber() Prober {
	return &httpProber{
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewProberWithClient creates a Prober backed by a custom http.Client.
func NewProberWithClient(hc *http.Client) Prober {
	return &httpProber{http: hc}
}

func (p *httpProber) Probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "prober: create request")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "prober: head request")
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode, nil
}
