package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *Amount {
	a := AmountFromFloat(v)
	return &a
}

func TestAmount_String(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{0, "0"},
		{44900, "449"},
		{44950, "449.50"},
		{5, "0.05"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
	assert.Equal(t, "₹449", Amount(44900).Format("₹"))
}

func TestAmount_UnmarshalJSON(t *testing.T) {
	var item CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","title":"Dune","price":449.5}`), &item))
	require.NotNil(t, item.Price)
	assert.Equal(t, Amount(44950), *item.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","title":"Emma","price":"12.3"}`), &item))
	assert.Equal(t, Amount(1230), *item.Price)

	var noPrice CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"3","title":"Ulysses"}`), &noPrice))
	assert.Nil(t, noPrice.Price)

	assert.Error(t, json.Unmarshal([]byte(`{"price":"abc"}`), &item))
}

func TestCartItem_Validate(t *testing.T) {
	assert.NoError(t, CartItem{ID: "1", Title: "Dune", Price: price(449)}.Validate())
	assert.NoError(t, CartItem{ID: "1", Title: "Dune"}.Validate())

	err := CartItem{ID: "1"}.Validate()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "title", valErr.Field)

	err = CartItem{ID: "1", Title: "Dune", Price: price(-1)}.Validate()
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "price", valErr.Field)
}

func TestCartState(t *testing.T) {
	var s CartState
	s.Upsert(CartItem{ID: "a", Title: "A", Price: price(100)})
	s.Upsert(CartItem{ID: "b", Title: "B"})
	s.Upsert(CartItem{ID: "c", Title: "C", Price: price(49.5)})
	assert.Equal(t, Amount(14950), s.Total())

	s.Upsert(CartItem{ID: "c", Title: "C", Price: price(49.5)})
	require.Len(t, s.Items, 3, "same id replaces in place")
	assert.Equal(t, Amount(14950), s.Total())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, Amount(4950), s.Total())

	_, ok := s.Find("b")
	assert.True(t, ok)

	snap := s.Snapshot()
	s.Replace(nil)
	assert.Len(t, snap, 2)
	assert.Empty(t, s.Items)
	assert.Equal(t, Amount(0), s.Total())
}

func TestChatSession(t *testing.T) {
	s := NewChatSession()
	assert.NotEmpty(t, s.ID)

	user := NewTurn(RoleUser, "hello", TurnComplete)
	pending := NewTurn(RoleAssistant, "thinking", TurnPending)
	s.Append(user)
	s.Append(pending)
	assert.NotEqual(t, user.ID, pending.ID)

	got, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, pending.ID, got.ID)

	clone := s.Clone()
	resolved, ok := s.Resolve(pending.ID, TurnComplete, "hi")
	require.True(t, ok)
	assert.Equal(t, "hi", resolved.Text)

	_, ok = s.Pending()
	assert.False(t, ok)
	_, ok = clone.Pending()
	assert.True(t, ok, "clone must not observe later mutation")

	_, ok = s.Resolve("missing", TurnFailed, "")
	assert.False(t, ok)
}
