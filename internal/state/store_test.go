package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healbites/healbites/internal/models"
)

func TestStoreBeginPublishesSessionStarted(t *testing.T) {
	st := NewStore()

	var started []int
	st.Subscribe(EventSessionStarted, func(userID int, s AppState) {
		started = append(started, userID)
		assert.Equal(t, ViewHome, s.View)
	})

	st.Begin(1)
	assert.Equal(t, []int{1}, started)
	assert.True(t, st.Active(1))

	// Begin on an active session is a no-op
	st.Begin(1)
	assert.Equal(t, []int{1}, started)
}

func TestStoreGetWithoutSession(t *testing.T) {
	st := NewStore()
	_, err := st.Get(99)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreUpdatePublishesDeclaredEvents(t *testing.T) {
	st := NewStore()
	st.Begin(1)

	var profileEvents, listEvents int
	st.Subscribe(EventProfileChanged, func(int, AppState) { profileEvents++ })
	st.Subscribe(EventListChanged, func(int, AppState) { listEvents++ })

	next, err := st.Update(1, func(s AppState) AppState {
		s.Servings = 6
		return s
	}, EventProfileChanged)
	require.NoError(t, err)
	assert.Equal(t, 6, next.Servings)
	assert.Equal(t, 1, profileEvents)
	assert.Equal(t, 0, listEvents)

	got, err := st.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Servings)
}

func TestStoreUpdateWithoutSession(t *testing.T) {
	st := NewStore()
	_, err := st.Update(5, func(s AppState) AppState { return s }, EventViewChanged)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreEndDropsEverything(t *testing.T) {
	st := NewStore()

	var signedOut []AppState
	st.Subscribe(EventSignedOut, func(_ int, s AppState) {
		signedOut = append(signedOut, s)
	})

	st.Begin(2)
	st.Update(2, func(s AppState) AppState {
		s.View = ViewCookingMode
		s.ShoppingList = []models.ShoppingListItem{{Name: "Eggs"}}
		return s
	})

	st.End(2)

	assert.False(t, st.Active(2))
	_, err := st.Get(2)
	assert.ErrorIs(t, err, ErrNoSession)

	// Sign-out works from any view and lands on auth
	require.Len(t, signedOut, 1)
	assert.Equal(t, ViewAuth, signedOut[0].View)

	// Ending a missing session publishes nothing
	st.End(2)
	assert.Len(t, signedOut, 1)
}

func TestStoreSubscriberGetsACopy(t *testing.T) {
	st := NewStore()

	st.Subscribe(EventListChanged, func(_ int, s AppState) {
		if len(s.ShoppingList) > 0 {
			s.ShoppingList[0].Name = "mutated"
		}
	})

	st.Begin(3)
	st.Update(3, func(s AppState) AppState {
		s.ShoppingList = []models.ShoppingListItem{{Name: "Butter"}}
		return s
	}, EventListChanged)

	got, err := st.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Butter", got.ShoppingList[0].Name)
}
