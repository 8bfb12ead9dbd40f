package boxclient

import (
	"net/http"
	"testing"
)

func TestBuildHeaders(t *testing.T) {
	headers := BuildHeaders(&RequestOptions{}, "abc")

	if got := headers.Get(HeaderAuthorization); got != "Bearer abc" {
		t.Errorf("expected Authorization %q, got %q", "Bearer abc", got)
	}
}

func TestBuildHeaders_NoToken(t *testing.T) {
	headers := BuildHeaders(&RequestOptions{}, "")

	if len(headers) != 0 {
		t.Errorf("expected no headers, got %v", headers)
	}
}

func TestBuildHeaders_NilOptions(t *testing.T) {
	headers := BuildHeaders(nil, "abc")

	if got := headers.Get(HeaderAuthorization); got != "Bearer abc" {
		t.Errorf("unexpected Authorization: %q", got)
	}
}

func TestBuildHeaders_MergesExplicitHeaders(t *testing.T) {
	opts := &RequestOptions{
		Headers: http.Header{
			"If-Match": {"etag-1"},
		},
	}

	headers := BuildHeaders(opts, "abc")

	if got := headers.Get("If-Match"); got != "etag-1" {
		t.Errorf("expected If-Match to be merged, got %q", got)
	}
	if got := headers.Get(HeaderAuthorization); got != "Bearer abc" {
		t.Errorf("unexpected Authorization: %q", got)
	}
}

func TestBuildHeaders_ExplicitAuthorizationOverrides(t *testing.T) {
	opts := &RequestOptions{
		Headers: http.Header{
			"authorization": {"Bearer explicit"},
		},
	}

	headers := BuildHeaders(opts, "constructed")

	values := headers.Values(HeaderAuthorization)
	if len(values) != 1 || values[0] != "Bearer explicit" {
		t.Errorf("expected explicit Authorization to win, got %v", values)
	}
}

func TestBuildHeaders_DoesNotMutateOptions(t *testing.T) {
	original := http.Header{"X-Custom": {"1"}}
	opts := &RequestOptions{Headers: original}

	headers := BuildHeaders(opts, "abc")
	headers.Add("X-Custom", "2")

	if len(original) != 1 || len(original["X-Custom"]) != 1 {
		t.Errorf("options headers were mutated: %v", original)
	}
	if original.Get(HeaderAuthorization) != "" {
		t.Error("Authorization leaked into options headers")
	}
}

func TestRemoveAuthorization(t *testing.T) {
	headers := http.Header{
		"Authorization": {"Bearer a"},
		"authorization": {"Bearer b"},
		"Accept":        {"application/json"},
	}

	removeAuthorization(headers)

	if len(headers) != 1 || headers.Get("Accept") == "" {
		t.Errorf("expected only Accept to remain, got %v", headers)
	}

	removeAuthorization(nil)
}
