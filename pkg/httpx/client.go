package httpx

import "net/http"

// Some data providers (Stooq, iShares, the public exchange REST APIs)
// reject requests without a browser-looking User-Agent.
const browserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(req)
}

// NewBrowserClient returns an http.Client that sends a browser User-Agent
// on every request.
func NewBrowserClient() *http.Client {
	return &http.Client{
		Transport: userAgentTransport{
			agent: browserAgent,
			base:  http.DefaultTransport,
		},
	}
}
