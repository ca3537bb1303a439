package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mockskills/collabzone/internal/domain/registration"
)

// RegistrationsRepo keeps registrations in a map. The email index is updated
// under the same lock as the records, so uniqueness holds under concurrent saves.
type RegistrationsRepo struct {
	mu      sync.RWMutex
	nextID  int64
	items   map[int64]registration.Registration
	byEmail map[string]int64
	now     func() time.Time
}

func NewRegistrationsRepo() *RegistrationsRepo {
	return &RegistrationsRepo{
		items:   make(map[int64]registration.Registration),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *RegistrationsRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *RegistrationsRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	_, ok := r.byEmail[email]
	r.mu.RUnlock()

	return ok, nil
}

func (r *RegistrationsRepo) Save(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ID == 0 {
		if _, taken := r.byEmail[reg.Email]; taken {
			return registration.Registration{}, registration.ErrEmailTaken
		}

		r.nextID++
		reg.ID = r.nextID
		reg.JoinDate = r.now().UTC()
		reg.Skills = append([]string(nil), reg.Skills...)

		r.items[reg.ID] = reg
		r.byEmail[reg.Email] = reg.ID

		return reg, nil
	}

	current, ok := r.items[reg.ID]
	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	if owner, taken := r.byEmail[reg.Email]; taken && owner != reg.ID {
		return registration.Registration{}, registration.ErrEmailTaken
	}

	// id, join date and an existing formatted id never change
	reg.JoinDate = current.JoinDate
	if current.FormattedID != "" {
		reg.FormattedID = current.FormattedID
	}
	reg.Skills = append([]string(nil), reg.Skills...)

	if current.Email != reg.Email {
		delete(r.byEmail, current.Email)
		r.byEmail[reg.Email] = reg.ID
	}
	r.items[reg.ID] = reg

	return reg, nil
}

func (r *RegistrationsRepo) FindByID(ctx context.Context, id int64) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.mu.RLock()
	reg, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	reg.Skills = append([]string(nil), reg.Skills...)
	return reg, nil
}

func (r *RegistrationsRepo) FindAll(ctx context.Context) ([]registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]registration.Registration, 0, len(r.items))
	for _, reg := range r.items {
		reg.Skills = append([]string(nil), reg.Skills...)
		out = append(out, reg)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *RegistrationsRepo) ListMissingFormattedID(ctx context.Context, afterID int64, limit int) ([]registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]registration.Registration, 0)
	for _, reg := range all {
		if reg.FormattedID != "" || reg.ID <= afterID {
			continue
		}
		out = append(out, reg)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

// Count is used by tests to assert that rejected submissions leave the store unchanged.
func (r *RegistrationsRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
