package httpclient

import (
	"crypto/tls"
	"net/http"
	"os"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is a gallery HTTP client that wraps the base HTTP client
// and provides typed methods for the upload collaborators.
type Client struct {
	*client.Client
}

// ProgressFunc receives the number of bytes written of total bytes for
// the transfer in flight.
type ProgressFunc func(written, total int64)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new gallery HTTP client with the given base URL and options.
// The url parameter should point to the API endpoint, e.g.
// "http://localhost:8080/api".
func New(url string, opts ...client.ClientOpt) (*Client, error) {
	c := new(Client)
	cl, err := client.New(append(opts, client.OptEndpoint(url))...)
	if err != nil {
		return nil, err
	}
	if isTruthyEnv("GALLERY_HTTP1") {
		var tr *http.Transport
		if t, ok := cl.Client.Transport.(*http.Transport); ok && t != nil {
			tr = t.Clone()
		} else {
			tr = http.DefaultTransport.(*http.Transport).Clone()
		}
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		cl.Client.Transport = tr
	}
	c.Client = cl
	return c, nil
}

func isTruthyEnv(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return v != "" && v != "0" && v != "false" && v != "no" && v != "off"
}
