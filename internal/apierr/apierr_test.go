package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStable(t *testing.T) {
	// These values are part of the wire contract.
	want := map[Code]int{
		CodeNotFound:         0,
		CodeNotAuthenticated: 1,
		CodeNotAuthorized:    2,
		CodeInvalidField:     3,
		CodeServerError:      4,
	}
	for code, n := range want {
		if int(code) != n {
			t.Fatalf("%s = %d, want %d", code, int(code), n)
		}
	}
}

func TestFromUnwrapsThroughWrapping(t *testing.T) {
	base := InvalidField("Name too long")
	wrapped := fmt.Errorf("create box: %w", base)

	ae := From(wrapped)
	if ae.Code != CodeInvalidField || ae.Info != "Name too long" {
		t.Fatalf("From(wrapped) = %+v", ae)
	}
}

func TestFromMapsUnknownToServerError(t *testing.T) {
	ae := From(errors.New("connection refused"))
	if ae.Code != CodeServerError {
		t.Fatalf("code = %v, want ServerError", ae.Code)
	}
	if ae.Info != "" {
		t.Fatalf("internal detail leaked into info: %q", ae.Info)
	}
	if ae.Err == nil {
		t.Fatalf("underlying error dropped")
	}
}

func TestFromNil(t *testing.T) {
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestErrorString(t *testing.T) {
	if got := InvalidField("bad").Error(); got != "InvalidField: bad" {
		t.Fatalf("Error() = %q", got)
	}
	if got := NotFound().Error(); got != "NotFound" {
		t.Fatalf("Error() = %q", got)
	}
}
