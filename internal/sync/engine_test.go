package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/services"
	"github.com/healbites/healbites/internal/state"
)

type fakeProfileStore struct {
	mu       gosync.Mutex
	profile  *models.Profile
	getErr   error
	upserted []models.Profile
}

func (f *fakeProfileStore) GetProfile(_ context.Context, _ int) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeProfileStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, *p)
	return nil
}

type fakeListStore struct {
	mu       gosync.Mutex
	items    []models.ShoppingListItem
	inserted []models.ShoppingListItem
	deleted  []string
}

func (f *fakeListStore) GetShoppingList(_ context.Context, _ int) ([]models.ShoppingListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ShoppingListItem{}, f.items...), nil
}

func (f *fakeListStore) InsertListItems(_ context.Context, _ int, items []models.ShoppingListItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, items...)
	return nil
}

func (f *fakeListStore) UpdateListItemAmount(_ context.Context, _ int, _, _ string) error {
	return nil
}

func (f *fakeListStore) DeleteListItem(_ context.Context, _ int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

type fakeEstimator struct {
	mu    gosync.Mutex
	total float64
	err   error
	calls int
}

func (f *fakeEstimator) EstimateTotalCost(_ context.Context, _ []models.ShoppingListItem) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.total, f.err
}

func (f *fakeEstimator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestEngine(t *testing.T, profiles *fakeProfileStore, lists *fakeListStore, est CostEstimator) (*state.Store, *Engine) {
	t.Helper()
	if profiles == nil {
		profiles = &fakeProfileStore{getErr: errors.New("no profile row")}
	}
	if lists == nil {
		lists = &fakeListStore{}
	}
	if est == nil {
		est = &fakeEstimator{}
	}
	store := state.NewStore()
	engine := NewEngine(store, profiles, lists, est)
	return store, engine
}

func TestSessionHydration(t *testing.T) {
	profiles := &fakeProfileStore{profile: &models.Profile{
		UserID:    1,
		Servings:  4,
		AgeGroup:  models.AgeGroupChildren,
		Allergies: []string{"peanuts"},
		Balance:   80,
	}}
	lists := &fakeListStore{items: []models.ShoppingListItem{
		{Name: "Milk", Amount: "1L"},
		{Name: "Eggs", Amount: "12"},
	}}
	est := &fakeEstimator{total: 9.50}

	store, engine := newTestEngine(t, profiles, lists, est)
	store.Begin(1)
	engine.Wait()

	s, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Servings)
	assert.Equal(t, models.AgeGroupChildren, s.AgeGroup)
	assert.Equal(t, []string{"peanuts"}, s.Allergies)
	assert.Equal(t, 80.0, s.Balance)
	assert.Len(t, s.ShoppingList, 2)
	assert.Equal(t, 9.50, s.EstimatedTotal)
}

func TestSessionHydrationKeepsDefaultsWithoutProfileRow(t *testing.T) {
	store, engine := newTestEngine(t, nil, nil, nil)
	store.Begin(1)
	engine.Wait()

	s, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Servings)
	assert.Equal(t, models.AgeGroupAdults, s.AgeGroup)
	assert.Equal(t, 50.0, s.Balance)
}

func TestProfileChangeUpserts(t *testing.T) {
	profiles := &fakeProfileStore{getErr: errors.New("no profile row")}
	store, engine := newTestEngine(t, profiles, nil, nil)
	store.Begin(1)

	store.Update(1, func(s state.AppState) state.AppState {
		s.Servings = 8
		return s
	}, state.EventProfileChanged)
	engine.Wait()

	profiles.mu.Lock()
	defer profiles.mu.Unlock()
	require.Len(t, profiles.upserted, 1)
	assert.Equal(t, 8, profiles.upserted[0].Servings)
}

func TestAddItemSkipsCaseInsensitiveDuplicate(t *testing.T) {
	lists := &fakeListStore{}
	store, engine := newTestEngine(t, nil, lists, nil)
	store.Begin(1)

	_, added, err := engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "Olive Oil", Amount: "1 bottle"})
	require.NoError(t, err)
	assert.True(t, added)

	next, added, err := engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "olive oil", Amount: "2 bottles"})
	require.NoError(t, err)
	assert.False(t, added)
	require.Len(t, next.ShoppingList, 1)
	assert.Equal(t, "Olive Oil", next.ShoppingList[0].Name)
	assert.Equal(t, "1 bottle", next.ShoppingList[0].Amount)

	engine.Wait()
	lists.mu.Lock()
	defer lists.mu.Unlock()
	assert.Len(t, lists.inserted, 1)
}

func TestAddItemsDeduplicatesWithinBatch(t *testing.T) {
	store, engine := newTestEngine(t, nil, nil, nil)
	store.Begin(1)

	_, added, err := engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "Flour"})
	require.NoError(t, err)
	require.True(t, added)

	next, count, err := engine.AddItems(context.Background(), 1, []models.ShoppingListItem{
		{Name: "flour"},
		{Name: "Sugar"},
		{Name: "SUGAR"},
		{Name: "Butter"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, next.ShoppingList, 3)
	engine.Wait()
}

func TestEmptyListEstimatesZeroWithoutRemoteCall(t *testing.T) {
	est := &fakeEstimator{total: 99}
	store, engine := newTestEngine(t, nil, nil, est)
	store.Begin(1)

	next, added, err := engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "Milk"})
	require.NoError(t, err)
	require.True(t, added)
	require.Len(t, next.ShoppingList, 1)
	engine.Wait()

	callsAfterAdd := est.callCount()
	assert.Equal(t, 1, callsAfterAdd)

	_, err = engine.RemoveItem(context.Background(), 1, "Milk")
	require.NoError(t, err)
	engine.Wait()

	s, err := store.Get(1)
	require.NoError(t, err)
	assert.Empty(t, s.ShoppingList)
	assert.Equal(t, 0.0, s.EstimatedTotal)
	assert.Equal(t, callsAfterAdd, est.callCount())
}

func TestEstimateFallbackOnError(t *testing.T) {
	est := &fakeEstimator{err: errors.New("model unavailable")}
	store, engine := newTestEngine(t, nil, nil, est)
	store.Begin(1)

	_, _, err := engine.AddItems(context.Background(), 1, []models.ShoppingListItem{
		{Name: "Milk"},
		{Name: "Eggs"},
		{Name: "Bread"},
	})
	require.NoError(t, err)
	engine.Wait()

	s, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 3*services.FallbackUnitPrice, s.EstimatedTotal)
}

// blockingEstimator stalls the one-item estimate until released, so the
// earlier estimate is forced to finish after the later two-item one
type blockingEstimator struct {
	release chan struct{}
}

func (b *blockingEstimator) EstimateTotalCost(_ context.Context, items []models.ShoppingListItem) (float64, error) {
	if len(items) == 1 {
		<-b.release
		return 10, nil
	}
	return 20, nil
}

func TestStaleEstimateIsDiscarded(t *testing.T) {
	est := &blockingEstimator{release: make(chan struct{})}
	store, engine := newTestEngine(t, nil, nil, est)
	store.Begin(1)

	_, _, err := engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "Milk"})
	require.NoError(t, err)

	// The second change supersedes the first while its estimate hangs
	_, _, err = engine.AddItem(context.Background(), 1, models.ShoppingListItem{Name: "Eggs"})
	require.NoError(t, err)

	close(est.release)
	engine.Wait()

	s, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.EstimatedTotal)
}
