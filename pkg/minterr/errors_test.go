package minterr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorMessageIncludesOpIDAndCause(t *testing.T) {
	err := ForItem(KindNotFound, "read image", 7, fmt.Errorf("no such file"))
	message := err.Error()
	for _, want := range []string{"read image", "id=7", "not_found", "no such file"} {
		if !strings.Contains(message, want) {
			t.Fatalf("expected %q in %q", want, message)
		}
	}
}

func TestErrorWithoutID(t *testing.T) {
	err := New(KindAuth, "upload", nil)
	if strings.Contains(err.Error(), "id=") {
		t.Fatalf("unexpected id in %q", err.Error())
	}
}

func TestNilErrorIsSafe(t *testing.T) {
	var err *Error
	if err.Error() == "" {
		t.Fatal("expected fallback message")
	}
	if err.Unwrap() != nil {
		t.Fatal("expected nil cause")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(KindCapacityExceeded, "mint", errors.New("tree full"))
	wrapped := fmt.Errorf("failed to mint item: %w", base)
	if !Is(wrapped, KindCapacityExceeded) {
		t.Fatal("expected kind to survive fmt wrapping")
	}
	if IsRetryable(wrapped) {
		t.Fatal("capacity errors are not retryable")
	}
}

func TestWithItemPreservesKind(t *testing.T) {
	err := WithItem(New(KindTransientNetwork, "upload", nil), "upload metadata", 3)
	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatal("expected *Error")
	}
	if typed.Kind != KindTransientNetwork || typed.ID != 3 {
		t.Fatalf("unexpected error %+v", typed)
	}
	if !IsRetryable(err) {
		t.Fatal("expected transient error to be retryable")
	}
}

func TestWithItemDefaultsToStorage(t *testing.T) {
	err := WithItem(errors.New("disk"), "advance", 1)
	if !Is(err, KindStorage) {
		t.Fatalf("expected storage kind, got %v", err)
	}
	if WithItem(nil, "advance", 1) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindTransientNetwork},
		{http.StatusRequestTimeout, KindTransientNetwork},
		{http.StatusBadGateway, KindTransientNetwork},
		{http.StatusServiceUnavailable, KindTransientNetwork},
		{http.StatusBadRequest, KindUploadRejected},
		{http.StatusRequestEntityTooLarge, KindUploadRejected},
	}
	for _, tc := range cases {
		if got := FromHTTPStatus(tc.status); got != tc.kind {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.kind, got)
		}
	}
}
