package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Transport fetches a fully-substituted dynamic-data URL and returns the
// parsed response body. Implementations own authentication headers, session
// handling, and timeouts; the resolver never constructs credentials itself.
type Transport interface {
	Fetch(ctx context.Context, url string) (any, error)
}

// RequestEditor mutates an outgoing request before it is sent, typically to
// attach authorization headers supplied by the credential collaborator.
type RequestEditor func(req *http.Request) error

// HTTPTransport is the default Transport: a GET against the substituted URL
// with a JSON-decoded body.
type HTTPTransport struct {
	client *http.Client
	editor RequestEditor
	base   *url.URL
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient overrides the underlying client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithRequestEditor installs a hook applied to every outgoing request.
func WithRequestEditor(editor RequestEditor) TransportOption {
	return func(t *HTTPTransport) {
		t.editor = editor
	}
}

// WithBaseURL resolves relative lookup paths against base. Schema templates
// commonly carry backend-relative paths such as /api/subnets?region={{region}}.
func WithBaseURL(base string) TransportOption {
	return func(t *HTTPTransport) {
		if parsed, err := url.Parse(base); err == nil && parsed.Host != "" {
			t.base = parsed
		}
	}
}

// NewHTTPTransport builds an HTTPTransport with a 30 second default timeout.
func NewHTTPTransport(options ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Fetch issues one GET and decodes the JSON body.
func (t *HTTPTransport) Fetch(ctx context.Context, target string) (any, error) {
	if ctx == nil {
		return nil, errors.New("resolver: context is required")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("resolver: parse url: %w", err)
	}
	if t.base != nil {
		parsed = t.base.ResolveReference(parsed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.editor != nil {
		if err := t.editor(req); err != nil {
			return nil, fmt.Errorf("resolver: request editor: %w", err)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("resolver: unexpected status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("resolver: decode: %w", err)
	}
	return payload, nil
}
