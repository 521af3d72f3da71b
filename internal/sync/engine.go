package sync

import (
	"context"
	"log"
	gosync "sync"

	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/services"
	"github.com/healbites/healbites/internal/state"
)

// ProfileStore is the remote store surface the engine needs for profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
}

// ListStore is the remote store surface the engine needs for shopping lists
type ListStore interface {
	GetShoppingList(ctx context.Context, userID int) ([]models.ShoppingListItem, error)
	InsertListItems(ctx context.Context, userID int, items []models.ShoppingListItem) error
	UpdateListItemAmount(ctx context.Context, userID int, name, amount string) error
	DeleteListItem(ctx context.Context, userID int, name string) error
}

// CostEstimator prices a shopping list
type CostEstimator interface {
	EstimateTotalCost(ctx context.Context, items []models.ShoppingListItem) (float64, error)
}

// Engine is the glue between the application state store and the remote
// profile/list store. It subscribes to state events and performs one
// documented remote action per event; list mutations go through the engine
// so the optimistic local update always lands before the remote call.
type Engine struct {
	store     *state.Store
	profiles  ProfileStore
	lists     ListStore
	estimator CostEstimator

	mu  gosync.Mutex
	seq map[int]uint64 // latest cost-estimate sequence per user
	wg  gosync.WaitGroup
}

// NewEngine creates a sync engine bound to the given state store and wires
// its event subscriptions
func NewEngine(store *state.Store, profiles ProfileStore, lists ListStore, estimator CostEstimator) *Engine {
	e := &Engine{
		store:     store,
		profiles:  profiles,
		lists:     lists,
		estimator: estimator,
		seq:       make(map[int]uint64),
	}

	store.Subscribe(state.EventSessionStarted, e.onSessionStarted)
	store.Subscribe(state.EventProfileChanged, e.onProfileChanged)
	store.Subscribe(state.EventListChanged, e.onListChanged)

	return e
}

// Wait blocks until in-flight cost estimations finish. Used on shutdown and
// by tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// onSessionStarted hydrates state from the remote store: profile and list in
// two independent reads. A missing or unreadable profile row leaves the
// in-memory defaults untouched; no row is created until the next write.
func (e *Engine) onSessionStarted(userID int, _ state.AppState) {
	ctx := context.Background()

	if profile, err := e.profiles.GetProfile(ctx, userID); err == nil {
		e.store.Update(userID, func(s state.AppState) state.AppState {
			s.Servings = models.ClampServings(profile.Servings)
			s.AgeGroup = profile.AgeGroup
			s.Allergies = profile.Allergies
			s.Balance = profile.Balance
			return s
		})
	}

	items, err := e.lists.GetShoppingList(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to fetch shopping list for user %d: %v", userID, err)
		return
	}
	if items == nil {
		items = []models.ShoppingListItem{}
	}
	e.store.Update(userID, func(s state.AppState) state.AppState {
		s.ShoppingList = items
		return s
	}, state.EventListChanged)
}

// onProfileChanged upserts the whole profile row. Last write wins; a
// concurrent edit from another device is silently overwritten.
func (e *Engine) onProfileChanged(userID int, s state.AppState) {
	profile := s.Profile()
	if err := e.profiles.UpsertProfile(context.Background(), &profile); err != nil {
		log.Printf("Warning: failed to sync profile for user %d: %v", userID, err)
	}
}

// onListChanged recomputes the estimated total for the current list. The
// empty list short-circuits to zero without a remote call. Completions
// carry a monotonic sequence; anything older than the latest issued
// estimate is discarded, so a slow early call can never overwrite a newer
// result.
func (e *Engine) onListChanged(userID int, s state.AppState) {
	e.mu.Lock()
	e.seq[userID]++
	seq := e.seq[userID]
	e.mu.Unlock()

	if len(s.ShoppingList) == 0 {
		e.applyEstimate(userID, seq, 0)
		return
	}

	items := s.ShoppingList
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		total, err := e.estimator.EstimateTotalCost(context.Background(), items)
		if err != nil {
			total = float64(len(items)) * services.FallbackUnitPrice
		}
		e.applyEstimate(userID, seq, total)
	}()
}

func (e *Engine) applyEstimate(userID int, seq uint64, total float64) {
	e.mu.Lock()
	stale := seq < e.seq[userID]
	e.mu.Unlock()
	if stale {
		return
	}

	e.store.Update(userID, func(s state.AppState) state.AppState {
		s.EstimatedTotal = total
		return s
	})
}

// AddItem appends one item unless a name differing only by case already
// exists, in which case the existing entry is left unchanged. The local
// state updates first; the remote insert follows and a remote failure
// leaves local and remote divergent until the next full reload.
func (e *Engine) AddItem(ctx context.Context, userID int, item models.ShoppingListItem) (state.AppState, bool, error) {
	current, err := e.store.Get(userID)
	if err != nil {
		return state.AppState{}, false, err
	}
	if current.HasListItem(item.Name) {
		return current, false, nil
	}

	next, err := e.store.Update(userID, func(s state.AppState) state.AppState {
		if !s.HasListItem(item.Name) {
			s.ShoppingList = append(s.ShoppingList, item)
		}
		return s
	}, state.EventListChanged)
	if err != nil {
		return state.AppState{}, false, err
	}

	if err := e.lists.InsertListItems(ctx, userID, []models.ShoppingListItem{item}); err != nil {
		log.Printf("Warning: failed to insert list item %q for user %d: %v", item.Name, userID, err)
	}
	return next, true, nil
}

// AddItems is the bulk-add path used when syncing a recipe's missing
// ingredients to the cart. Duplicate names are skipped case-insensitively;
// the surviving items are appended locally and inserted remotely in one
// batch.
func (e *Engine) AddItems(ctx context.Context, userID int, items []models.ShoppingListItem) (state.AppState, int, error) {
	current, err := e.store.Get(userID)
	if err != nil {
		return state.AppState{}, 0, err
	}

	var fresh []models.ShoppingListItem
	for _, item := range items {
		if current.HasListItem(item.Name) {
			continue
		}
		duplicate := false
		for _, f := range fresh {
			if f.SameName(item.Name) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) == 0 {
		return current, 0, nil
	}

	next, err := e.store.Update(userID, func(s state.AppState) state.AppState {
		for _, item := range fresh {
			if !s.HasListItem(item.Name) {
				s.ShoppingList = append(s.ShoppingList, item)
			}
		}
		return s
	}, state.EventListChanged)
	if err != nil {
		return state.AppState{}, 0, err
	}

	if err := e.lists.InsertListItems(ctx, userID, fresh); err != nil {
		log.Printf("Warning: failed to insert %d list items for user %d: %v", len(fresh), userID, err)
	}
	return next, len(fresh), nil
}

// UpdateItemAmount changes one item's free-text amount, keyed by the stored
// name. Optimistic local update, remote follows, no rollback.
func (e *Engine) UpdateItemAmount(ctx context.Context, userID int, name, amount string) (state.AppState, error) {
	next, err := e.store.Update(userID, func(s state.AppState) state.AppState {
		for i := range s.ShoppingList {
			if s.ShoppingList[i].Name == name {
				s.ShoppingList[i].Amount = amount
			}
		}
		return s
	}, state.EventListChanged)
	if err != nil {
		return state.AppState{}, err
	}

	if err := e.lists.UpdateListItemAmount(ctx, userID, name, amount); err != nil {
		log.Printf("Warning: failed to update list item %q for user %d: %v", name, userID, err)
	}
	return next, nil
}

// RemoveItem deletes one item keyed by the stored name. Optimistic local
// update, remote follows, no rollback.
func (e *Engine) RemoveItem(ctx context.Context, userID int, name string) (state.AppState, error) {
	next, err := e.store.Update(userID, func(s state.AppState) state.AppState {
		kept := make([]models.ShoppingListItem, 0, len(s.ShoppingList))
		for _, item := range s.ShoppingList {
			if item.Name != name {
				kept = append(kept, item)
			}
		}
		s.ShoppingList = kept
		return s
	}, state.EventListChanged)
	if err != nil {
		return state.AppState{}, err
	}

	if err := e.lists.DeleteListItem(ctx, userID, name); err != nil {
		log.Printf("Warning: failed to delete list item %q for user %d: %v", name, userID, err)
	}
	return next, nil
}
