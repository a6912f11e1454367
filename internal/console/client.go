// Package console talks to the Compute console's API: a single bearer-
// authenticated POST that returns the defender install script.
package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

// ScriptPath is the resource appended to the normalized API base.
const ScriptPath = "/api/v1/scripts/defender.sh"

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

type Options struct {
	Fingerprint string // pin the console cert by sha256 fingerprint
	Insecure    bool   // skip TLS verification entirely
	Timeout     time.Duration
}

func NewClient(apiBase, token string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Minute
	}
	return &Client{
		BaseURL: NormalizeBaseURL(apiBase),
		Token:   token,
		HTTP:    newHTTPClient(opts),
	}
}

// NormalizeBaseURL strips the trailing slash and the API path suffixes users
// tend to paste in along with the endpoint, so the script path can always be
// appended to a clean base.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSuffix(raw, "/")
	for _, suffix := range []string{"/api/v1", "/api"} {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	return base
}

// FetchScript downloads the vendor installer. Anything but a 200 is fatal
// with the status surfaced to the user - there is no way to tell a transient
// failure from an expired token here, so retrying would only mask problems.
func (c *Client) FetchScript(ctx context.Context) ([]byte, error) {
	url := c.BaseURL + ScriptPath

	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return nil, fmt.Errorf("building script request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting installer script from console: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		io.Copy(io.Discard, resp.Body)
		return nil, &install.FetchError{Status: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading installer script: %w", err)
	}
	return body, nil
}
