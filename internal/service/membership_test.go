package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryshare/backend/internal/service"
	"github.com/pantryshare/backend/internal/testhelpers"
)

func TestFavoriteToggle(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	user := testhelpers.CreateUser(t, db, "bob")
	recipe := testhelpers.CreateRecipe(t, db, author, "Cake", nil)

	short, err := svc.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Cake", short.Name)
	assert.Equal(t, 10, short.CookingTime)

	// add-after-add conflicts
	_, err = svc.AddFavorite(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, svc.RemoveFavorite(ctx, user.ID, recipe.ID))

	// remove-after-remove is a not-present error
	err = svc.RemoveFavorite(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCartToggle(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	user := testhelpers.CreateUser(t, db, "bob")
	recipe := testhelpers.CreateRecipe(t, db, author, "Pie", nil)

	_, err := svc.AddToCart(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, svc.RemoveFromCart(ctx, user.ID, recipe.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, user.ID, recipe.ID), service.ErrNotFound)
}

func TestFavoriteAndCartAreIndependent(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	user := testhelpers.CreateUser(t, db, "bob")
	recipe := testhelpers.CreateRecipe(t, db, author, "Salad", nil)

	_, err := svc.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	// the favorite does not occupy the cart slot
	_, err = svc.AddToCart(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFavorite(ctx, user.ID, recipe.ID))
	require.NoError(t, svc.RemoveFromCart(ctx, user.ID, recipe.ID))
}

func TestMembershipUnknownRecipe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewMembershipService(db)
	ctx := context.Background()

	user := testhelpers.CreateUser(t, db, "bob")

	_, err := svc.AddFavorite(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.AddToCart(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
