package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/emberleaf/storefront/internal/cache"
	"github.com/emberleaf/storefront/internal/currency"
	"github.com/emberleaf/storefront/internal/domain"
	"github.com/emberleaf/storefront/internal/rates"
	"github.com/emberleaf/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m         sync.RWMutex
	state     *domain.CartState
	err       error
	loadDelay time.Duration
}

func (m *mockRepository) Load(context.Context, string) (*domain.CartState, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	time.Sleep(m.loadDelay)
	if m.err != nil {
		return nil, m.err
	}
	if m.state == nil {
		return nil, repository.ErrCartNotFound
	}
	// Copy so the service mutating its result does not alias the "stored"
	// record.
	st := *m.state
	st.Items = append([]domain.CartLine(nil), m.state.Items...)
	return &st, nil
}

func (m *mockRepository) Save(_ context.Context, state *domain.CartState) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	st := *state
	st.Items = append([]domain.CartLine(nil), state.Items...)
	m.state = &st
	return nil
}

func (m *mockRepository) Clear(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.state = nil
	return nil
}

func (m *mockRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (m *mockRepository) stored() *domain.CartState {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.state
}

type mockCache struct {
	m     sync.RWMutex
	state *domain.CartState
	sets  int
}

func (m *mockCache) Get(context.Context, string) (*domain.CartState, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.state == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.state, nil
}

func (m *mockCache) Set(_ context.Context, _ string, state *domain.CartState) error {
	// Marshal outside the lock the way the redis cache does, so the race
	// detector sees the same reads of the state as production.
	if _, err := json.Marshal(state); err != nil {
		return err
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.state = state
	m.sets++
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.state = nil
	return nil
}

func (m *mockCache) setCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.sets
}

type mockPrefs struct {
	m    sync.RWMutex
	code string
	err  error
}

func (m *mockPrefs) Currency(context.Context, string) (string, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.code, m.err
}

func (m *mockPrefs) SetCurrency(_ context.Context, _ string, code string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.code = code
	return nil
}

func newTestService(repo *mockRepository, c *mockCache, prefs *mockPrefs) *CartService {
	conv := currency.NewConverter(staticSource{})
	return NewCartService(repo, c, prefs, conv)
}

type staticSource struct{}

func (staticSource) Rates() map[currency.Code]float64 {
	return rates.DefaultTable().Rates
}

func cigarLine() domain.CartLine {
	return domain.CartLine{
		Ref:      "cigar:1",
		Name:     "Cohiba Behike",
		Price:    2499,
		Category: "premium",
	}
}

func TestAddItem_NewLine(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockPrefs{})

	state, err := svc.AddItem(context.Background(), "s1", cigarLine(), 1)
	require.NoError(t, err)

	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.TotalItems)
	assert.Equal(t, 2499.0, state.TotalPrice)
	assert.Equal(t, "INR", state.Currency)
	require.NotNil(t, repo.stored())
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 1)
	require.NoError(t, err)
	state, err := svc.AddItem(ctx, "s1", cigarLine(), 1)
	require.NoError(t, err)

	require.Len(t, state.Items, 1, "same reference must merge, not duplicate")
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, 2, state.TotalItems)
	assert.Equal(t, 4998.0, state.TotalPrice)
}

func TestAddItem_QuantityCapRejectsWholeAdd(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 8)
	require.NoError(t, err)

	// 8 + 3 exceeds the cap; nothing may change, not even a partial bump to
	// the cap.
	_, err = svc.AddItem(ctx, "s1", cigarLine(), 3)
	var limitErr *QuantityLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, domain.MaxItemQuantity, limitErr.Limit)
	assert.Equal(t, "Cohiba Behike", limitErr.Name)

	state, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 8, state.Items[0].Quantity)
}

func TestAddItem_AtCapExactly(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})

	state, err := svc.AddItem(context.Background(), "s1", cigarLine(), domain.MaxItemQuantity)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxItemQuantity, state.Items[0].Quantity)
}

func TestAddItem_InvalidInput(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", domain.CartLine{}, 1)
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.AddItem(ctx, "s1", cigarLine(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, "s1", cigarLine(), -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItem_RepoError(t *testing.T) {
	repo := &mockRepository{err: assert.AnError}
	svc := newTestService(repo, &mockCache{}, &mockPrefs{})

	_, err := svc.AddItem(context.Background(), "s1", cigarLine(), 1)
	require.Error(t, err)
}

func TestUpdateQuantity_Increment(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 1)
	require.NoError(t, err)

	state, err := svc.UpdateQuantity(ctx, "s1", "cigar:1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Items[0].Quantity)
}

func TestUpdateQuantity_ClampsAtCap(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 9)
	require.NoError(t, err)

	state, err := svc.UpdateQuantity(ctx, "s1", "cigar:1", 5)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxItemQuantity, state.Items[0].Quantity)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 1)
	require.NoError(t, err)

	state, err := svc.UpdateQuantity(ctx, "s1", "cigar:1", -1)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.TotalItems)
	assert.Equal(t, 0.0, state.TotalPrice)
}

func TestUpdateQuantity_AbsentRefIsNoop(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})

	state, err := svc.UpdateQuantity(context.Background(), "s1", "cigar:99", 1)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
}

func TestRemoveItem(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 2)
	require.NoError(t, err)
	other := cigarLine()
	other.Ref = "accessory:1"
	other.Name = "Cigar Cutter"
	other.Price = 1500
	_, err = svc.AddItem(ctx, "s1", other, 1)
	require.NoError(t, err)

	state, err := svc.RemoveItem(ctx, "s1", "cigar:1")
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, domain.ItemRef("accessory:1"), state.Items[0].Ref)
	assert.Equal(t, 1, state.TotalItems)
	assert.Equal(t, 1500.0, state.TotalPrice)
}

func TestRemoveAll(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 3)
	require.NoError(t, err)

	state, err := svc.RemoveAll(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.TotalItems)
	assert.Nil(t, repo.stored(), "persisted record must be cleared outright")
}

func TestGet_EmptyForUnknownSession(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockCache{}, &mockPrefs{})

	state, err := svc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Equal(t, "INR", state.Currency)
}

func TestGet_PopulatesCacheAsync(t *testing.T) {
	repo := &mockRepository{state: &domain.CartState{
		SessionID: "s1",
		Items:     []domain.CartLine{cigarLine()},
	}}
	c := &mockCache{}
	svc := newTestService(repo, c, &mockPrefs{})

	_, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.setCount() > 0
	}, time.Second, 10*time.Millisecond, "repo hit should be written back to the cache")
}

func TestGet_ConcurrentCallersDoNotShareState(t *testing.T) {
	// Coalesced readers all receive the singleflight result; each must get
	// an independent copy, not the pointer the cache write-back goroutine is
	// marshaling. Run with -race to catch regressions here.
	repo := &mockRepository{
		state: &domain.CartState{
			SessionID: "s1",
			Items:     []domain.CartLine{{Ref: "cigar:1", Name: "Cohiba Behike", Price: 2499, Quantity: 2}},
		},
		loadDelay: 10 * time.Millisecond,
	}
	svc := newTestService(repo, &mockCache{}, &mockPrefs{})

	const callers = 8
	states := make([]*domain.CartState, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state, err := svc.Get(context.Background(), "s1")
			assert.NoError(t, err)
			states[i] = state
		}(i)
	}
	wg.Wait()

	for i, state := range states {
		require.NotNil(t, state, "caller %d", i)
		assert.Equal(t, 2, state.TotalItems, "caller %d", i)
		assert.Equal(t, 4998.0, state.TotalPrice, "caller %d", i)
	}

	// Mutating one caller's result must not leak into another's.
	states[0].TotalPrice = -1
	states[0].Items[0].Quantity = 99
	assert.Equal(t, 4998.0, states[1].TotalPrice)
	assert.Equal(t, 2, states[1].Items[0].Quantity)
}

func TestMutate_SaveFailureSurfacesButReturnsState(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestService(repo, &mockCache{}, &mockPrefs{})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 1)
	require.NoError(t, err)

	repo.m.Lock()
	repo.err = assert.AnError
	repo.m.Unlock()

	state, err := svc.UpdateQuantity(ctx, "s1", "cigar:1", 1)
	require.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, state, "caller keeps the mutated state even when durability failed")
	assert.Equal(t, 2, state.Items[0].Quantity)
}

func TestSetCurrency_RejectsUnknownCode(t *testing.T) {
	prefs := &mockPrefs{}
	svc := newTestService(&mockRepository{}, &mockCache{}, prefs)

	err := svc.SetCurrency(context.Background(), "s1", "XYZ")
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
	assert.Empty(t, prefs.code)
}

func TestCurrencyChange_AffectsTotalsWithoutMutation(t *testing.T) {
	prefs := &mockPrefs{}
	svc := newTestService(&mockRepository{}, &mockCache{}, prefs)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 2)
	require.NoError(t, err)

	require.NoError(t, svc.SetCurrency(ctx, "s1", currency.USD))

	state, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "USD", state.Currency)
	assert.InDelta(t, 4998*0.012, state.TotalPrice, 1e-9)
	assert.Equal(t, 2499.0, state.Items[0].Price, "line prices stay in the base currency")

	// Switching back is exact, not approximate: totals are recomputed from
	// base prices every time, never round-tripped through a conversion.
	require.NoError(t, svc.SetCurrency(ctx, "s1", currency.INR))
	state, err = svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4998.0, state.TotalPrice)
}

func TestActiveCurrency_DefaultsOnBadPreference(t *testing.T) {
	prefs := &mockPrefs{code: "NOPE"}
	svc := newTestService(&mockRepository{}, &mockCache{}, prefs)

	assert.Equal(t, currency.Base, svc.ActiveCurrency(context.Background(), "s1"))
}

func TestSummarize(t *testing.T) {
	prefs := &mockPrefs{}
	svc := newTestService(&mockRepository{}, &mockCache{}, prefs)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", cigarLine(), 2)
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, "s1")
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	assert.Equal(t, currency.INR, summary.Currency)
	assert.Equal(t, "₹2,499", summary.Items[0].UnitPrice)
	assert.Equal(t, "₹4,998", summary.Items[0].LineTotal)
	assert.Equal(t, "₹4,998", summary.Total)
	assert.Equal(t, 2, summary.TotalItems)
}
