package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"
)

var errBusy = errors.New("busy")

func isErrBusy(err error) bool { return errors.Is(err, errBusy) }

func TestRetry(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	other := errors.New("constraint failed")

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, nil, 1, nil},
		{"busy then success", 2, errBusy, 3, nil},
		{"busy exhausted", 10, errBusy, 4, errBusy},
		{"other error not retried", 10, other, 1, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := retry(context.Background(), policy, isErrBusy, func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, isErrBusy, func() error {
		calls++
		cancel()
		return errBusy
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
	want := []time.Duration{10, 20, 40, 50, 50}
	for attempt, w := range want {
		if got := backoff(attempt, p); got != w*time.Millisecond {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w*time.Millisecond)
		}
	}

	p.UseJitter = true
	for attempt := range 5 {
		got := backoff(attempt, p)
		if got < 5*time.Millisecond || got > p.MaxDelay {
			t.Errorf("jittered backoff(%d) = %v out of range", attempt, got)
		}
	}
}

// lockedWrite returns the error from a write attempted while another
// connection holds the write lock.
func lockedWrite(t *testing.T) error {
	t.Helper()
	ctx := context.Background()

	s := newTestStore(t)
	holder, err := sql.Open("sqlite", s.Path())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = holder.Close() })
	tx, err := holder.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	if _, err := tx.ExecContext(ctx, "INSERT INTO dispatches (line, success, created_at) VALUES ('/a', 1, 'x')"); err != nil {
		t.Fatal(err)
	}

	writer, err := sql.Open("sqlite", s.Path())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = writer.Close() })
	writer.SetMaxOpenConns(1)
	if _, err := writer.ExecContext(ctx, "PRAGMA busy_timeout = 0"); err != nil {
		t.Fatal(err)
	}
	_, err = writer.ExecContext(ctx, "INSERT INTO dispatches (line, success, created_at) VALUES ('/b', 1, 'x')")
	if err == nil {
		t.Fatal("write succeeded while another connection held the lock")
	}
	return err
}

func TestIsBusy(t *testing.T) {
	t.Parallel()

	locked := lockedWrite(t)
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"driver busy error", locked, true},
		{"wrapped driver busy error", fmt.Errorf("history: record: %w", locked), true},
		{"message only", errors.New("database is locked (5) (SQLITE_BUSY)"), false},
		{"unrelated", errors.New("constraint failed"), false},
	}
	for _, tt := range tests {
		if got := isBusy(tt.err); got != tt.want {
			t.Errorf("%s: isBusy(%v) = %v, want %v", tt.name, tt.err, got, tt.want)
		}
	}
}
