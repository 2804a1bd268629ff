package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connecta/internal/domain"
	"connecta/pkg/cache"
	"connecta/pkg/xerrors"
)

// memStore mimics the cache's compare-and-delete contract without a
// running redis: at most one caller consumes a given entry.
type memStore struct {
	mu      sync.Mutex
	entries map[string]string
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]string{}}
}

func (m *memStore) Set(_ context.Context, namespace, key string, value interface{}, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[namespace+":"+key] = value.(string)
	return nil
}

func (m *memStore) CompareAndDelete(_ context.Context, namespace, key, expected string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := namespace + ":" + key
	current, ok := m.entries[k]
	if !ok {
		return cache.CADMissing, nil
	}
	if current != expected {
		return cache.CADMismatch, nil
	}
	delete(m.entries, k)
	return cache.CADDeleted, nil
}

type recordingDispatcher struct {
	emails []string
	sms    []string
	err    error
}

func (d *recordingDispatcher) SendEmail(_ context.Context, to, _, _ string) error {
	d.emails = append(d.emails, to)
	return d.err
}

func (d *recordingDispatcher) SendSMS(_ context.Context, to, _ string) error {
	d.sms = append(d.sms, to)
	return d.err
}

type denyLimiter struct{ err error }

func (l denyLimiter) CanRequest(context.Context, string, string) error { return l.err }

func newTestService(store *memStore, d Dispatcher) *Service {
	return NewService(store, nil, d, 5*time.Minute, zap.NewNop())
}

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func account() *domain.Account {
	return &domain.Account{
		ID:    "acc-1",
		Email: "asha@example.com",
		Phone: "+91 9876543210",
	}
}

func TestIssueProducesSixDigitCode(t *testing.T) {
	store := newMemStore()
	d := &recordingDispatcher{}
	svc := newTestService(store, d)

	code, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)
	require.Regexp(t, sixDigits, code)
}

func TestIssuePrefersEmail(t *testing.T) {
	store := newMemStore()
	d := &recordingDispatcher{}
	svc := newTestService(store, d)

	_, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)
	require.Equal(t, []string{"asha@example.com"}, d.emails)
	require.Empty(t, d.sms)
}

func TestIssueFallsBackToSMS(t *testing.T) {
	store := newMemStore()
	d := &recordingDispatcher{}
	svc := newTestService(store, d)

	a := account()
	a.Email = ""
	_, err := svc.Issue(context.Background(), a, "password_reset")
	require.NoError(t, err)
	require.Equal(t, []string{"+91 9876543210"}, d.sms)
	require.Empty(t, d.emails)
}

func TestIssueNoRecipient(t *testing.T) {
	svc := newTestService(newMemStore(), &recordingDispatcher{})

	a := account()
	a.Email = ""
	a.Phone = ""
	_, err := svc.Issue(context.Background(), a, "password_reset")
	require.ErrorIs(t, err, xerrors.ErrNoRecipient)
}

func TestIssueRateLimited(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, denyLimiter{err: xerrors.ErrTooManyOTPRequests}, &recordingDispatcher{}, 5*time.Minute, zap.NewNop())

	_, err := svc.Issue(context.Background(), account(), "password_reset")
	require.ErrorIs(t, err, xerrors.ErrTooManyOTPRequests)
	require.Empty(t, store.entries, "no code may be stored when the limiter refuses")
}

func TestIssueDispatchFailureStillIssues(t *testing.T) {
	store := newMemStore()
	d := &recordingDispatcher{err: errors.New("smtp down")}
	svc := newTestService(store, d)

	code, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), "acc-1", code))
}

func TestIssueOverwritesPreviousCode(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingDispatcher{})

	first, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)

	if first != second {
		require.ErrorIs(t, svc.Verify(context.Background(), "acc-1", first), xerrors.ErrInvalidOTP)
	}
	require.NoError(t, svc.Verify(context.Background(), "acc-1", second))
}

func TestVerifyConsumesOnFirstUse(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingDispatcher{})

	code, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(context.Background(), "acc-1", code))
	// second submission of the same correct code: already consumed
	require.ErrorIs(t, svc.Verify(context.Background(), "acc-1", code), xerrors.ErrOTPNotFound)
}

func TestVerifyMismatchKeepsCode(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingDispatcher{})

	code, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Verify(context.Background(), "acc-1", "000000"), xerrors.ErrInvalidOTP)
	// a wrong guess must not burn the real code
	require.NoError(t, svc.Verify(context.Background(), "acc-1", code))
}

func TestVerifyNeverIssued(t *testing.T) {
	svc := newTestService(newMemStore(), &recordingDispatcher{})
	err := svc.Verify(context.Background(), "acc-1", "123456")
	require.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingDispatcher{})

	code, err := svc.Issue(context.Background(), account(), "password_reset")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Verify(context.Background(), "acc-1", code)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, xerrors.ErrOTPNotFound)
		}
	}
	require.Equal(t, 1, wins, "exactly one racing verification may succeed")
}

func TestRandomCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		require.Regexp(t, sixDigits, randomCode(6))
	}
}
