package app

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/beneflow/benefit-service/internal/domain"
	"github.com/beneflow/benefit-service/internal/store"
)

// fakeState holds the benefit rows backing the in-memory repository.
type fakeState struct {
	nextID   int64
	benefits map[int64]domain.Benefit
}

func (s *fakeState) clone() *fakeState {
	cp := &fakeState{nextID: s.nextID, benefits: make(map[int64]domain.Benefit, len(s.benefits))}
	for id, b := range s.benefits {
		cp.benefits[id] = b
	}
	return cp
}

// fakeRepository is an in-memory store.Repository for service tests. A single
// mutex serializes transactions, and InTx restores a snapshot of the state on
// error, so failed operations roll back in full like the real store.
type fakeRepository struct {
	mu    sync.Mutex
	state *fakeState
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{state: &fakeState{nextID: 1, benefits: map[int64]domain.Benefit{}}}
}

// seed inserts a benefit directly, bypassing service validation.
func (r *fakeRepository) seed(name, description string, balance decimal.Decimal, active bool) domain.Benefit {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := domain.Benefit{
		ID:          r.state.nextID,
		Name:        name,
		Description: description,
		Balance:     balance,
		Active:      active,
	}
	r.state.nextID++
	r.state.benefits[b.ID] = b
	return b
}

// get returns the current stored row, for assertions.
func (r *fakeRepository) get(id int64) (domain.Benefit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.state.benefits[id]
	return b, ok
}

func (r *fakeRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.benefits)
}

func (r *fakeRepository) FindAll(ctx context.Context) ([]domain.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).FindAll(ctx)
}

func (r *fakeRepository) FindPaged(ctx context.Context, filter domain.BenefitFilter, page, size int) ([]domain.Benefit, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).FindPaged(ctx, filter, page, size)
}

func (r *fakeRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).ExistsByName(ctx, name)
}

func (r *fakeRepository) ExistsActiveByNameExcludingID(ctx context.Context, name string, excludedID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).ExistsActiveByNameExcludingID(ctx, name, excludedID)
}

func (r *fakeRepository) FindByID(ctx context.Context, id int64) (*domain.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).FindByID(ctx, id)
}

func (r *fakeRepository) FindByIDActive(ctx context.Context, id int64) (*domain.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).FindByIDActive(ctx, id)
}

func (r *fakeRepository) FindByIDActiveForUpdate(ctx context.Context, id int64) (*domain.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).FindByIDActiveForUpdate(ctx, id)
}

func (r *fakeRepository) Save(ctx context.Context, benefit *domain.Benefit) (*domain.Benefit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).Save(ctx, benefit)
}

func (r *fakeRepository) Delete(ctx context.Context, benefit *domain.Benefit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&fakeTx{r.state}).Delete(ctx, benefit)
}

func (r *fakeRepository) InTx(ctx context.Context, fn func(store.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.state.clone()
	if err := fn(&fakeTx{r.state}); err != nil {
		*r.state = *snapshot
		return err
	}
	return nil
}

// fakeTx operates on the shared state without locking; the enclosing
// fakeRepository call holds the mutex.
type fakeTx struct {
	state *fakeState
}

func (t *fakeTx) FindAll(ctx context.Context) ([]domain.Benefit, error) {
	var benefits []domain.Benefit
	for _, b := range t.state.benefits {
		benefits = append(benefits, b)
	}
	return benefits, nil
}

func (t *fakeTx) FindPaged(ctx context.Context, filter domain.BenefitFilter, page, size int) ([]domain.Benefit, int64, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}

	var matched []domain.Benefit
	for _, b := range t.state.benefits {
		if matchesFilter(b, filter) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := page * size
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (t *fakeTx) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, b := range t.state.benefits {
		if b.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) ExistsActiveByNameExcludingID(ctx context.Context, name string, excludedID int64) (bool, error) {
	for _, b := range t.state.benefits {
		if b.Active && b.Name == name && b.ID != excludedID {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) FindByID(ctx context.Context, id int64) (*domain.Benefit, error) {
	b, ok := t.state.benefits[id]
	if !ok {
		return nil, store.ErrBenefitNotFound
	}
	copied := b
	return &copied, nil
}

func (t *fakeTx) FindByIDActive(ctx context.Context, id int64) (*domain.Benefit, error) {
	b, ok := t.state.benefits[id]
	if !ok || !b.Active {
		return nil, store.ErrBenefitNotFound
	}
	copied := b
	return &copied, nil
}

func (t *fakeTx) FindByIDActiveForUpdate(ctx context.Context, id int64) (*domain.Benefit, error) {
	return t.FindByIDActive(ctx, id)
}

func (t *fakeTx) Save(ctx context.Context, benefit *domain.Benefit) (*domain.Benefit, error) {
	saved := *benefit
	if benefit.ID == 0 {
		saved.ID = t.state.nextID
		saved.Version = 0
		t.state.nextID++
	} else if _, ok := t.state.benefits[benefit.ID]; !ok {
		return nil, store.ErrBenefitNotFound
	}
	t.state.benefits[saved.ID] = saved
	return &saved, nil
}

func (t *fakeTx) Delete(ctx context.Context, benefit *domain.Benefit) error {
	if _, ok := t.state.benefits[benefit.ID]; !ok {
		return store.ErrBenefitNotFound
	}
	delete(t.state.benefits, benefit.ID)
	return nil
}

func (t *fakeTx) InTx(ctx context.Context, fn func(store.Repository) error) error {
	return fn(t)
}

// matchesFilter mirrors the SQL predicate semantics: blank criteria contribute
// no constraint, textual matches are case-insensitive substrings, and global
// search spans name OR description.
func matchesFilter(b domain.Benefit, f domain.BenefitFilter) bool {
	if strings.TrimSpace(f.Name) != "" && !containsFold(b.Name, f.Name) {
		return false
	}
	if strings.TrimSpace(f.Description) != "" && !containsFold(b.Description, f.Description) {
		return false
	}
	if f.Balance != nil && !b.Balance.Equal(*f.Balance) {
		return false
	}
	if f.Active != nil && b.Active != *f.Active {
		return false
	}
	if strings.TrimSpace(f.Search) != "" && !containsFold(b.Name, f.Search) && !containsFold(b.Description, f.Search) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
