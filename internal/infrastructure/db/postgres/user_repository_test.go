package postgres

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/usermgmt/user-management-api/internal/core/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("23505 must classify as unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "08006"}) {
		t.Fatalf("connection failure is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("arbitrary errors are not unique violations")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"connection does not exist", &pgconn.PgError{Code: "08003"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"no rows", pgx.ErrNoRows, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"net timeout", &net.DNSError{IsTimeout: true}, true},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("%s: isTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWithRetry_RetriesTransientFaults(t *testing.T) {
	r := NewUserRepository(nil, 3, time.Millisecond)

	calls := 0
	err := r.withRetry(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "08006"}
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetry_DoesNotRetryBusinessRejections(t *testing.T) {
	r := NewUserRepository(nil, 3, time.Millisecond)

	calls := 0
	err := r.withRetry(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})
	if !isUniqueViolation(err) {
		t.Fatalf("expected the unique violation to surface, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("conflict must not be retried, got %d attempts", calls)
	}
}

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	r := NewUserRepository(nil, 3, time.Millisecond)

	calls := 0
	err := r.withRetry(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "08006"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after one retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestWrapStorageErr(t *testing.T) {
	err := wrapStorageErr("insert user", &pgconn.PgError{Code: "08006"})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable wrapping, got %v", err)
	}

	err = wrapStorageErr("find user", context.Canceled)
	if errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("cancellation must not be labelled a storage outage: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled to be preserved, got %v", err)
	}
}
