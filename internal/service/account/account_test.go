package account

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"connecta/internal/domain"
	"connecta/internal/events"
	"connecta/internal/repository"
	"connecta/pkg/xerrors"
)

// fakeAccountRepo keeps accounts and the allocation log in memory with the
// same uniqueness semantics as the real store.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	seqs     map[int]bool

	// allocFailures forces the first N allocation attempts to conflict.
	allocFailures int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: map[string]*domain.Account{},
		seqs:     map[int]bool{},
	}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email || existing.Phone == a.Phone || existing.DisplayID == a.DisplayID {
			return xerrors.ErrDuplicateAccount
		}
	}
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, xerrors.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccountRepo) GetByEmailOrPhone(_ context.Context, email, phone string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if (email != "" && a.Email == email) || (phone != "" && a.Phone == phone) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, xerrors.ErrAccountNotFound
}

func (f *fakeAccountRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	_, err := f.GetByEmailOrPhone(context.Background(), email, phone)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeAccountRepo) List(_ context.Context, role string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Account
	for _, a := range f.accounts {
		if role == "" || a.Role == role {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) Update(_ context.Context, id string, upd domain.AccountUpdate) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, xerrors.ErrAccountNotFound
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	if upd.IsPrivate != nil {
		a.IsPrivate = *upd.IsPrivate
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return xerrors.ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccountRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (f *fakeAccountRepo) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	a.IsActive = active
	return nil
}

func (f *fakeAccountRepo) SetBlockedGlobally(_ context.Context, id string, blocked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	a.IsBlocked = blocked
	return nil
}

func (f *fakeAccountRepo) MaxDisplaySeq(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for s := range f.seqs {
		if s > max {
			max = s
		}
	}
	return max, nil
}

func (f *fakeAccountRepo) AllocateDisplaySeq(_ context.Context, seq int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allocFailures > 0 {
		f.allocFailures--
		f.seqs[seq] = true // somebody else won the race for this number
		return repository.ErrSeqTaken
	}
	if f.seqs[seq] {
		return repository.ErrSeqTaken
	}
	f.seqs[seq] = true
	return nil
}

var _ repository.AccountRepository = (*fakeAccountRepo)(nil)

func newService(repo repository.AccountRepository) *Service {
	return NewService(repo, events.NopProducer{}, time.Second, zap.NewNop())
}

func validInput() domain.NewAccountInput {
	return domain.NewAccountInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Password: "s3cret-pass",
	}
}

func TestCreateMissingFields(t *testing.T) {
	svc := newService(newFakeAccountRepo())

	for _, mutate := range []func(*domain.NewAccountInput){
		func(in *domain.NewAccountInput) { in.Name = "" },
		func(in *domain.NewAccountInput) { in.Email = "" },
		func(in *domain.NewAccountInput) { in.Phone = "" },
		func(in *domain.NewAccountInput) { in.Password = "" },
	} {
		in := validInput()
		mutate(&in)
		_, err := svc.Create(context.Background(), in)
		require.ErrorIs(t, err, xerrors.ErrMissingFields)
	}
}

func TestCreateInvalidPhone(t *testing.T) {
	svc := newService(newFakeAccountRepo())

	in := validInput()
	in.Phone = "12345"
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, xerrors.ErrInvalidPhone)
}

func TestCreateAssignsDisplayIDAndHashesPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newService(repo)

	a, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "CA000001", a.DisplayID)
	require.Equal(t, "+91 9876543210", a.Phone)
	require.NotEmpty(t, a.ID)
	require.True(t, a.IsActive)

	// stored hash verifies against the original and is not the plaintext
	require.NotEqual(t, "s3cret-pass", a.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret-pass")))
}

func TestCreateDuplicateEmailOrPhone(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Phone = "9999999999"
	_, err = svc.Create(context.Background(), dup)
	require.ErrorIs(t, err, xerrors.ErrDuplicateAccount)

	dup = validInput()
	dup.Email = "other@example.com"
	// same subscriber number written differently still collides
	dup.Phone = "+91 9876543210"
	_, err = svc.Create(context.Background(), dup)
	require.ErrorIs(t, err, xerrors.ErrDuplicateAccount)
}

func TestDisplayIDAllocationRetriesOnConflict(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.allocFailures = 3
	svc := newService(repo)

	a, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	// three lost races consumed CA000001..CA000003
	require.Equal(t, "CA000004", a.DisplayID)
}

func TestDisplayIDAllocationBounded(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.allocFailures = displayIDAttempts
	svc := newService(repo)

	_, err := svc.Create(context.Background(), validInput())
	require.ErrorIs(t, err, xerrors.ErrTransient)
}

func TestConcurrentCreatesGetDistinctDisplayIDs(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newService(repo)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := domain.NewAccountInput{
				Name:     "User",
				Email:    fmt.Sprintf("user%02d@example.com", i),
				Phone:    fmt.Sprintf("98765432%02d", i),
				Password: "s3cret-pass",
			}
			a, err := svc.Create(context.Background(), in)
			if err == nil {
				ids <- a.DisplayID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "display id %s allocated twice", id)
		seen[id] = true
	}
	require.NotEmpty(t, seen)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newService(repo)

	a, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), a.ID, "wrong-pass", "new-pass")
	require.ErrorIs(t, err, xerrors.ErrInvalidOldPassword)

	err = svc.ChangePassword(context.Background(), a.ID, "s3cret-pass", "new-pass")
	require.NoError(t, err)

	updated, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-pass")))

	err = svc.ChangePassword(context.Background(), "missing", "x", "y")
	require.ErrorIs(t, err, xerrors.ErrAccountNotFound)
}

func TestSetFlagsOnMissingAccount(t *testing.T) {
	svc := newService(newFakeAccountRepo())

	require.ErrorIs(t, svc.SetActive(context.Background(), "missing", true), xerrors.ErrAccountNotFound)
	require.ErrorIs(t, svc.SetBlockedGlobally(context.Background(), "missing", true), xerrors.ErrAccountNotFound)
}
