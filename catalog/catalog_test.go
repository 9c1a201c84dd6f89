package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, Seed(context.Background(), st))
	return st
}

func TestSeed_Idempotent(t *testing.T) {
	st := seededStore(t)
	before, err := st.CountProducts(context.Background())
	require.NoError(t, err)
	require.Positive(t, before)

	require.NoError(t, Seed(context.Background(), st))
	after, err := st.CountProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCatalog_SearchMatchesQuery(t *testing.T) {
	c := New(seededStore(t))

	cards, err := c.Search(context.Background(), "blazer", 10)
	require.NoError(t, err)
	require.NotEmpty(t, cards)
	for _, card := range cards {
		assert.False(t, card.IsExternal)
		assert.NotEmpty(t, card.ID)
		assert.NotEmpty(t, card.ImageURL)
	}
}

func TestCatalog_NoMatchStillReturnsProducts(t *testing.T) {
	c := New(seededStore(t))

	// Nothing in the fixtures matches, but a non-empty catalog never
	// returns an empty result.
	cards, err := c.Search(context.Background(), "zzzz-no-such-garment", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, cards)
}

func TestCatalog_EmptyQueryReturnsTrendingFirst(t *testing.T) {
	c := New(seededStore(t))

	cards, err := c.Search(context.Background(), "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, cards)
	for _, card := range cards {
		assert.True(t, card.Trending)
	}
}

func TestCardFromProduct_PriceParsing(t *testing.T) {
	card := CardFromProduct(models.Product{ID: "p1", Price: "189.00"})
	assert.Equal(t, 189.0, card.Price)

	card = CardFromProduct(models.Product{ID: "p2", Price: "not-a-number"})
	assert.Equal(t, 0.0, card.Price)
}
