package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/notifications"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/repo/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	received []registration.Registration
	outcome  notifications.Outcome
}

func (f *fakeNotifier) SendRegistrationConfirmation(_ context.Context, reg registration.Registration) notifications.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, reg)
	if f.outcome == "" {
		return notifications.OutcomeSent
	}
	return f.outcome
}

// flakyStore fails selected calls and delegates the rest.
type flakyStore struct {
	*memory.RegistrationsRepo
	existsErr  error
	failUpdate bool
	failInsert error
	// failIDs fails the update of these ids only
	failIDs map[int64]bool
}

func (s *flakyStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.RegistrationsRepo.ExistsByEmail(ctx, email)
}

func (s *flakyStore) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if reg.ID == 0 && s.failInsert != nil {
		return registration.Registration{}, s.failInsert
	}
	if reg.ID != 0 && (s.failUpdate || s.failIDs[reg.ID]) {
		return registration.Registration{}, errors.New("connection reset")
	}
	return s.RegistrationsRepo.Save(ctx, reg)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adaCandidate() registration.Registration {
	return registration.Registration{
		Email:      "ada@example.com",
		Name:       "Ada Lovelace",
		Department: registration.DepartmentTech,
		Skills:     []string{"Go"},
	}
}

func newService(t *testing.T, store Store, n notifications.Notifier) (*RegistrationService, *observability.Prom) {
	t.Helper()
	prom := observability.NewProm(prometheus.NewRegistry())
	return NewRegistrationService(store, n, discardLogger(), prom), prom
}

func TestCreate_FirstRegistration(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	n := &fakeNotifier{}
	svc, prom := newService(t, store, n)

	conf, err := svc.Create(context.Background(), adaCandidate())
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", conf.Name)
	assert.Equal(t, "GENZ00001", conf.FormattedID)
	assert.Equal(t, "Hello Ada Lovelace, your registration was successful! Your unique ID is: GENZ00001. Welcome to MockSkills!", conf.Message())

	got, err := store.FindByID(context.Background(), conf.ID)
	require.NoError(t, err)
	assert.Equal(t, "GENZ00001", got.FormattedID)
	assert.False(t, got.JoinDate.IsZero())

	require.Len(t, n.received, 1)
	assert.Equal(t, "ada@example.com", n.received[0].Email)
	assert.Equal(t, "GENZ00001", n.received[0].FormattedID)

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.RegistrationsTotal.WithLabelValues("created")))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	n := &fakeNotifier{}
	svc, prom := newService(t, store, n)
	ctx := context.Background()

	_, err := svc.Create(ctx, adaCandidate())
	require.NoError(t, err)

	dup := adaCandidate()
	dup.Name = "Someone Else"
	dup.Email = "  ADA@example.com "
	_, err = svc.Create(ctx, dup)

	var rej *registration.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.ErrorIs(t, err, registration.ErrEmailTaken)
	assert.Equal(t, registration.MsgEmailTaken, rej.Reason)

	assert.Equal(t, 1, store.Count())
	assert.Len(t, n.received, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.RegistrationsTotal.WithLabelValues("conflict")))
}

func TestCreate_RejectionsLeaveStoreUntouched(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *registration.Registration)
		field  string
	}{
		{
			name:   "missing name",
			mutate: func(r *registration.Registration) { r.Name = "   " },
			field:  "name",
		},
		{
			name:   "missing email",
			mutate: func(r *registration.Registration) { r.Email = "" },
			field:  "email",
		},
		{
			name:   "malformed email",
			mutate: func(r *registration.Registration) { r.Email = "not-an-email" },
			field:  "email",
		},
		{
			name:   "unknown department",
			mutate: func(r *registration.Registration) { r.Department = "SALES" },
			field:  "department",
		},
		{
			name:   "no skills",
			mutate: func(r *registration.Registration) { r.Skills = nil },
			field:  "skills",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewRegistrationsRepo()
			n := &fakeNotifier{}
			svc, _ := newService(t, store, n)

			candidate := adaCandidate()
			tt.mutate(&candidate)

			_, err := svc.Create(context.Background(), candidate)

			var rej *registration.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.ErrorIs(t, err, registration.ErrInvalid)
			assert.Equal(t, tt.field, rej.Field)
			assert.Equal(t, 0, store.Count())
			assert.Empty(t, n.received)
		})
	}
}

func TestCreate_MissingNameReportedFirst(t *testing.T) {
	svc, _ := newService(t, memory.NewRegistrationsRepo(), &fakeNotifier{})

	_, err := svc.Create(context.Background(), registration.Registration{})

	var rej *registration.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, registration.MsgNameMissing, rej.Reason)
}

func TestCreate_IgnoresClientSuppliedIdentity(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, _ := newService(t, store, &fakeNotifier{})

	candidate := adaCandidate()
	candidate.ID = 42
	candidate.FormattedID = "GENZ99999"

	conf, err := svc.Create(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conf.ID)
	assert.Equal(t, "GENZ00001", conf.FormattedID)
}

func TestCreate_NotificationFailureStillSucceeds(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	transport := &failingTransport{}
	n := notifications.NewConfirmationNotifier(transport, "support@mockskills.com", discardLogger(), nil)
	svc, _ := newService(t, store, n)

	conf, err := svc.Create(context.Background(), adaCandidate())
	require.NoError(t, err)
	assert.Equal(t, "GENZ00001", conf.FormattedID)
	assert.Equal(t, 1, transport.calls)
	assert.Equal(t, 1, store.Count())
}

type failingTransport struct{ calls int }

func (f *failingTransport) Name() string { return "failing" }

func (f *failingTransport) Send(context.Context, notifications.Message) error {
	f.calls++
	return errors.New("smtp: 421 service not available")
}

func TestCreate_StoreFailures(t *testing.T) {
	t.Run("exists check fails", func(t *testing.T) {
		store := &flakyStore{RegistrationsRepo: memory.NewRegistrationsRepo(), existsErr: errors.New("db down")}
		n := &fakeNotifier{}
		svc, prom := newService(t, store, n)

		_, err := svc.Create(context.Background(), adaCandidate())
		require.Error(t, err)

		var rej *registration.RejectionError
		assert.False(t, errors.As(err, &rej))
		assert.Empty(t, n.received)
		assert.Equal(t, 1.0, testutil.ToFloat64(prom.RegistrationsTotal.WithLabelValues("error")))
	})

	t.Run("insert loses race on unique email", func(t *testing.T) {
		store := &flakyStore{RegistrationsRepo: memory.NewRegistrationsRepo(), failInsert: registration.ErrEmailTaken}
		svc, _ := newService(t, store, &fakeNotifier{})

		_, err := svc.Create(context.Background(), adaCandidate())
		assert.ErrorIs(t, err, registration.ErrEmailTaken)
	})

	t.Run("second write fails and repair completes it", func(t *testing.T) {
		store := &flakyStore{RegistrationsRepo: memory.NewRegistrationsRepo(), failUpdate: true}
		n := &fakeNotifier{}
		svc, _ := newService(t, store, n)
		ctx := context.Background()

		conf, err := svc.Create(ctx, adaCandidate())
		require.NoError(t, err)
		assert.Equal(t, "GENZ00001", conf.FormattedID)
		require.Len(t, n.received, 1)

		raw, err := store.RegistrationsRepo.FindByID(ctx, conf.ID)
		require.NoError(t, err)
		assert.Empty(t, raw.FormattedID)

		// readers still see the derived code
		got, err := svc.Get(ctx, conf.ID)
		require.NoError(t, err)
		assert.Equal(t, "GENZ00001", got.FormattedID)

		store.failUpdate = false
		n2, err := svc.RepairFormattedIDs(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, n2)

		raw, err = store.RegistrationsRepo.FindByID(ctx, conf.ID)
		require.NoError(t, err)
		assert.Equal(t, "GENZ00001", raw.FormattedID)
	})
}

func TestGet(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, _ := newService(t, store, &fakeNotifier{})
	ctx := context.Background()

	conf, err := svc.Create(ctx, adaCandidate())
	require.NoError(t, err)

	first, err := svc.Get(ctx, conf.ID)
	require.NoError(t, err)
	second, err := svc.Get(ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "Ada Lovelace", first.Name)

	_, err = svc.Get(ctx, 999999)
	assert.ErrorIs(t, err, registration.ErrNotFound)
}

func TestList(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, _ := newService(t, store, &fakeNotifier{})
	ctx := context.Background()

	regs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		c := adaCandidate()
		c.Email = email
		_, err := svc.Create(ctx, c)
		require.NoError(t, err)
	}

	regs, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 3)
	for i, r := range regs {
		assert.Equal(t, emails[i], r.Email)
		assert.Equal(t, registration.FormatID(r.ID), r.FormattedID)
	}
}

func TestCreate_DistinctIdsAndCodes(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, _ := newService(t, store, &fakeNotifier{})
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		c := adaCandidate()
		c.Email = "user" + string(rune('a'+i)) + "@example.com"
		conf, err := svc.Create(ctx, c)
		require.NoError(t, err)
		assert.False(t, seen[conf.FormattedID], "duplicate code %s", conf.FormattedID)
		seen[conf.FormattedID] = true
	}
}

func TestCreate_ConcurrentSameEmail(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, _ := newService(t, store, &fakeNotifier{})

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), adaCandidate())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if errors.Is(err, registration.ErrEmailTaken) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, 1, store.Count())
}

func TestRepairFormattedIDs(t *testing.T) {
	store := memory.NewRegistrationsRepo()
	svc, prom := newService(t, store, &fakeNotifier{})
	ctx := context.Background()

	// three inserts stuck between the two writes
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		c := adaCandidate()
		c.Email = email
		_, err := store.Save(ctx, c)
		require.NoError(t, err)
	}

	n, err := svc.RepairFormattedIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.RepairFormattedIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	regs, err := store.FindAll(ctx)
	require.NoError(t, err)
	for _, r := range regs {
		assert.Equal(t, registration.FormatID(r.ID), r.FormattedID)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(prom.RepairedTotal))
}

func TestRepairFormattedIDs_SkipsFailingRecord(t *testing.T) {
	store := &flakyStore{RegistrationsRepo: memory.NewRegistrationsRepo(), failIDs: map[int64]bool{1: true}}
	svc, prom := newService(t, store, &fakeNotifier{})
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		c := adaCandidate()
		c.Email = email
		_, err := store.RegistrationsRepo.Save(ctx, c)
		require.NoError(t, err)
	}

	// batch of one: the failing first row must not be listed again
	n, err := svc.RepairFormattedIDs(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repair registration 1")
	assert.Equal(t, 2, n)

	missing, err := store.ListMissingFormattedID(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, int64(1), missing[0].ID)

	assert.Equal(t, 2.0, testutil.ToFloat64(prom.RepairedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.RepairFailuresTotal))

	delete(store.failIDs, 1)
	n, err = svc.RepairFormattedIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
