package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultTimeout bounds a single JSON request.
	DefaultTimeout = 30 * time.Second

	// AssetReadTimeout bounds asset byte-range reads, which can be larger.
	AssetReadTimeout = 45 * time.Second

	maxErrorBodyChars = 2000
)

// HTTPError is the normalized shape of every non-success response: the HTTP
// status and up to maxErrorBodyChars of the response body.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// httpRequest describes one outbound call. There is no retry at this layer;
// retry policy belongs to the caller.
type httpRequest struct {
	Method  string
	URL     string
	Query   url.Values
	Header  http.Header
	Body    any // marshaled as JSON when non-nil
	RawBody []byte
	Timeout time.Duration
}

func (r *httpRequest) build(ctx context.Context) (*http.Request, context.CancelFunc, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	var body io.Reader
	contentType := ""
	switch {
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			cancel()
			return nil, nil, goerr.Wrap(err, "failed to marshal request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case r.RawBody != nil:
		body = bytes.NewReader(r.RawBody)
	}

	reqURL := r.URL
	if len(r.Query) > 0 {
		reqURL += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL, body)
	if err != nil {
		cancel()
		return nil, nil, goerr.Wrap(err, "failed to build request", goerr.V("url", r.URL))
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, cancel, nil
}

// requestJSON performs the call and decodes a JSON response into out. Non-2xx
// responses become *HTTPError; network and timeout failures are wrapped as
// transport errors.
func requestJSON(ctx context.Context, client *http.Client, r *httpRequest, out any) error {
	data, err := requestBytes(ctx, client, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return goerr.Wrap(err, "failed to parse response", goerr.V("url", r.URL))
	}
	return nil
}

// requestBytes performs the call and returns the raw response body.
func requestBytes(ctx context.Context, client *http.Client, r *httpRequest) ([]byte, error) {
	req, cancel, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("url", r.URL))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body", goerr.V("url", r.URL))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			Status: resp.StatusCode,
			Body:   truncate(string(data), maxErrorBodyChars),
		}
	}

	return data, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
