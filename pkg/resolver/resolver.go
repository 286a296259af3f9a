// Package resolver turns a field's dynamic-source template into a concrete
// choice set. It substitutes {{name}} placeholders from the values accepted so
// far, performs at most one lookup through the injected transport, and
// normalizes the handful of response shapes the catalog backends produce.
// Transport and shape failures degrade to an empty choice set with a warning;
// they never abort a collection session.
package resolver

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/brunseba/vra-cli/pkg/engine"
)

// Resolution is the outcome of resolving one dynamic template. Pending means
// the template still references variables with no accepted value; no lookup
// was performed and the choice set is empty.
type Resolution struct {
	URL     string
	Values  []any
	Pending bool
	Missing []string
}

// Resolver resolves dynamic-source and dynamic-default templates.
type Resolver struct {
	transport Transport
	logger    *log.Logger
	cache     map[string][]any
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger overrides the warning logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Resolver around the given transport.
func New(transport Transport, options ...Option) *Resolver {
	r := &Resolver{
		transport: transport,
		logger:    log.New(os.Stderr),
		cache:     make(map[string][]any),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve substitutes template against values and fetches the resulting URL.
// When any placeholder remains unresolved the result is pending and no
// transport call happens. Responses may be a bare list, an object with a
// "values" list, or an object with a "data" list; anything else degrades to an
// empty list with a logged warning, as do transport failures.
//
// Results are memoized by the substituted URL for the resolver's lifetime, so
// a changed dependency (which produces a different URL) is never served a
// stale choice set.
func (r *Resolver) Resolve(ctx context.Context, template string, values map[string]any) Resolution {
	if template == "" {
		return Resolution{}
	}

	url, missing := engine.Substitute(template, values)
	if len(missing) > 0 {
		return Resolution{URL: url, Pending: true, Missing: missing}
	}

	if cached, ok := r.cache[url]; ok {
		return Resolution{URL: url, Values: cached}
	}

	choices := r.fetch(ctx, url)
	r.cache[url] = choices
	return Resolution{URL: url, Values: choices}
}

// ResolveDefault resolves a dynamic-default template. The second return is
// false when the template is pending or the lookup produced nothing usable.
// A scalar body is accepted as-is, an object contributes its "value" entry,
// and a list (in any recognized shape) contributes its first element.
func (r *Resolver) ResolveDefault(ctx context.Context, template string, values map[string]any) (any, bool) {
	if template == "" {
		return nil, false
	}

	url, missing := engine.Substitute(template, values)
	if len(missing) > 0 {
		return nil, false
	}

	payload, err := r.transport.Fetch(ctx, url)
	if err != nil {
		r.logger.Warn("dynamic default lookup failed", "url", url, "err", err)
		return nil, false
	}

	switch body := payload.(type) {
	case map[string]any:
		if value, ok := body["value"]; ok {
			return value, true
		}
		if list := normalizeList(payload); len(list) > 0 {
			return list[0], true
		}
		return nil, false
	case []any:
		if len(body) > 0 {
			return body[0], true
		}
		return nil, false
	case nil:
		return nil, false
	default:
		return body, true
	}
}

func (r *Resolver) fetch(ctx context.Context, url string) []any {
	payload, err := r.transport.Fetch(ctx, url)
	if err != nil {
		r.logger.Warn("dynamic source lookup failed", "url", url, "err", err)
		return nil
	}

	list := normalizeList(payload)
	if list == nil {
		r.logger.Warn("dynamic source returned an unrecognized shape", "url", url)
	}
	return list
}

// normalizeList accepts the three recognized response shapes: a bare list, an
// object with a "values" list, or an object with a "data" list.
func normalizeList(payload any) []any {
	switch body := payload.(type) {
	case []any:
		return body
	case map[string]any:
		if list, ok := body["values"].([]any); ok {
			return list
		}
		if list, ok := body["data"].([]any); ok {
			return list
		}
	}
	return nil
}
