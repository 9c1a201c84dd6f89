package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaki/vesaki-server/models"
)

func TestMemoryStore_SearchProductsMatchesAnyField(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.InsertProduct(ctx, &models.Product{ID: uuid.NewString(), Name: "Linen Blazer", Brand: "Arket"}))
	require.NoError(t, st.InsertProduct(ctx, &models.Product{ID: uuid.NewString(), Name: "Chore Jacket", Category: "outerwear", Description: "heavy linen workwear"}))

	tests := []struct {
		query string
		want  int
	}{
		{query: "LINEN", want: 2},
		{query: "arket", want: 1},
		{query: "outerwear", want: 1},
		{query: "velvet", want: 0},
	}
	for _, tt := range tests {
		rows, err := st.SearchProducts(ctx, tt.query, 10)
		require.NoError(t, err)
		assert.Len(t, rows, tt.want, "query %q", tt.query)
	}
}

func TestMemoryStore_NotFoundErrors(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.DefaultCollection(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetCollectionItem(ctx, "c1", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetPrimaryPhotoKeepsSinglePrimary(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	user := &models.User{ID: uuid.NewString(), Email: "a@b.c", CreatedAt: time.Now()}
	require.NoError(t, st.InsertUser(ctx, user))

	var ids []string
	for i := 0; i < 3; i++ {
		p := &models.Photo{ID: uuid.NewString(), UserID: user.ID, URL: "user_images/p.jpg", CreatedAt: time.Now()}
		require.NoError(t, st.InsertPhoto(ctx, p))
		ids = append(ids, p.ID)
	}

	require.NoError(t, st.SetPrimaryPhoto(ctx, user.ID, ids[0]))
	require.NoError(t, st.SetPrimaryPhoto(ctx, user.ID, ids[2]))

	photos, err := st.ListPhotos(ctx, user.ID)
	require.NoError(t, err)
	primaries := 0
	for _, p := range photos {
		if p.IsPrimary {
			primaries++
			assert.Equal(t, ids[2], p.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	stored, err := st.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], stored.PrimaryPhotoID)
}

func TestMemoryStore_ListSwipesNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.InsertSwipe(ctx, &models.Swipe{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			ProductID: uuid.NewString(),
			Direction: models.SwipeLeft,
			SwipedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	swipes, err := st.ListSwipes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, swipes, 3)
	for i := 1; i < len(swipes); i++ {
		assert.False(t, swipes[i-1].SwipedAt.Before(swipes[i].SwipedAt))
	}
}

func TestMemoryStore_DeletePhoto(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	p := &models.Photo{ID: uuid.NewString(), UserID: "user-1", URL: "user_images/p.jpg", CreatedAt: time.Now()}
	require.NoError(t, st.InsertPhoto(ctx, p))

	require.NoError(t, st.DeletePhoto(ctx, p.ID))
	_, err := st.GetPhoto(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeletePhoto(ctx, p.ID), ErrNotFound)
}
