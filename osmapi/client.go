// Package osmapi fetches changesets and user details from the
// OpenStreetMap API v0.6.
package osmapi

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/omniscale/osmwelcome"
)

const DefaultBaseURL = "https://api.openstreetmap.org/api/0.6"

// StatusError is returned for responses with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.URL)
}

type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient returns a client for the API at baseURL. An empty baseURL
// selects the public OSM API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "osmwelcome " + osmwelcome.Version,
		client:    NewHTTPClient(),
	}
}

// NewHTTPClient returns a http.Client with connect and header timeouts.
// The total duration of a request is controlled by the request context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SetUserAgent overrides the default User-Agent header.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// SetHTTPClient replaces the underlying http.Client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

// Changeset returns the raw XML metadata document of a changeset.
func (c *Client) Changeset(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/changeset/"+url.PathEscape(id), "Failed to fetch changeset")
}

// ChangesetDownload returns the raw osmChange document of a changeset.
func (c *Client) ChangesetDownload(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/changeset/"+url.PathEscape(id)+"/download", "Failed to fetch changeset data")
}

func (c *Client) get(ctx context.Context, path, failMsg string) ([]byte, error) {
	u := c.baseURL + path
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating request for %s", u)
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain for connection reuse
		io.Copy(ioutil.Discard, resp.Body)
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode, Message: failMsg}
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response from %s", u)
	}
	return body, nil
}
