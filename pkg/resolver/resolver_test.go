package resolver

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

type stubTransport struct {
	payload any
	err     error
	calls   []string
}

func (s *stubTransport) Fetch(_ context.Context, url string) (any, error) {
	s.calls = append(s.calls, url)
	return s.payload, s.err
}

func quietResolver(transport Transport) *Resolver {
	return New(transport, WithLogger(log.New(io.Discard)))
}

func TestResolve_PendingMakesNoCalls(t *testing.T) {
	transport := &stubTransport{payload: []any{"a"}}
	r := quietResolver(transport)

	res := r.Resolve(context.Background(), "/api/subnets?region={{region}}", map[string]any{})
	if !res.Pending {
		t.Fatal("expected pending resolution")
	}
	if len(res.Values) != 0 {
		t.Errorf("pending resolution must have an empty choice set, got %v", res.Values)
	}
	if len(transport.calls) != 0 {
		t.Errorf("expected zero transport calls, got %v", transport.calls)
	}
	if diff := cmp.Diff([]string{"region"}, res.Missing); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}
}

func TestResolve_SubstitutedURLFetchedOnce(t *testing.T) {
	transport := &stubTransport{payload: []any{"subnet-a", "subnet-b"}}
	r := quietResolver(transport)

	res := r.Resolve(context.Background(), "/api/subnets?region={{region}}", map[string]any{"region": "MOP"})
	if res.Pending {
		t.Fatal("resolution should not be pending")
	}
	if diff := cmp.Diff([]string{"/api/subnets?region=MOP"}, transport.calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"subnet-a", "subnet-b"}, res.Values); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestResolve_RecognizedShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		want    []any
	}{
		{"bare list", []any{"a", "b"}, []any{"a", "b"}},
		{"values object", map[string]any{"values": []any{"a"}}, []any{"a"}},
		{"data object", map[string]any{"data": []any{"b"}}, []any{"b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := quietResolver(&stubTransport{payload: tc.payload})
			res := r.Resolve(context.Background(), "/api/things", nil)
			if diff := cmp.Diff(tc.want, res.Values); diff != "" {
				t.Errorf("values (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_UnrecognizedShapeDegrades(t *testing.T) {
	r := quietResolver(&stubTransport{payload: map[string]any{"status": "error"}})

	res := r.Resolve(context.Background(), "/api/things", nil)
	if res.Pending {
		t.Fatal("unrecognized shape is not pending")
	}
	if len(res.Values) != 0 {
		t.Errorf("expected empty choice set, got %v", res.Values)
	}
}

func TestResolve_TransportFailureDegrades(t *testing.T) {
	r := quietResolver(&stubTransport{err: errors.New("connection refused")})

	res := r.Resolve(context.Background(), "/api/things", nil)
	if len(res.Values) != 0 {
		t.Errorf("expected empty choice set, got %v", res.Values)
	}
}

func TestResolve_CachesBySubstitutedURL(t *testing.T) {
	transport := &stubTransport{payload: []any{"a"}}
	r := quietResolver(transport)

	values := map[string]any{"region": "MOP"}
	r.Resolve(context.Background(), "/api/subnets?region={{region}}", values)
	r.Resolve(context.Background(), "/api/subnets?region={{region}}", values)
	if len(transport.calls) != 1 {
		t.Fatalf("same URL should be fetched once, got %v", transport.calls)
	}

	// A changed dependency produces a different URL and a fresh lookup.
	values["region"] = "EMEA"
	r.Resolve(context.Background(), "/api/subnets?region={{region}}", values)
	want := []string{"/api/subnets?region=MOP", "/api/subnets?region=EMEA"}
	if diff := cmp.Diff(want, transport.calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestResolveDefault(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		want    any
		ok      bool
	}{
		{"scalar", "small", "small", true},
		{"value object", map[string]any{"value": "medium"}, "medium", true},
		{"list", []any{"first", "second"}, "first", true},
		{"values object", map[string]any{"values": []any{"x"}}, "x", true},
		{"empty list", []any{}, nil, false},
		{"unrecognized", map[string]any{"status": "error"}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := quietResolver(&stubTransport{payload: tc.payload})
			got, ok := r.ResolveDefault(context.Background(), "/api/default", nil)
			if ok != tc.ok || !cmp.Equal(got, tc.want) {
				t.Errorf("got (%v, %v), want (%v, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestResolveDefault_PendingMakesNoCalls(t *testing.T) {
	transport := &stubTransport{payload: "x"}
	r := quietResolver(transport)

	if _, ok := r.ResolveDefault(context.Background(), "/api/d?r={{region}}", nil); ok {
		t.Fatal("pending template must not resolve")
	}
	if len(transport.calls) != 0 {
		t.Errorf("expected zero transport calls, got %v", transport.calls)
	}
}
