package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryshare/backend/internal/models"
	"github.com/pantryshare/backend/internal/service"
	"github.com/pantryshare/backend/internal/testhelpers"
)

// These tests run against a containerized PostgreSQL so the composite
// unique indexes and their error codes are enforced by the same engine
// as production. They skip when docker is unavailable.

func TestPostgresUniqueConstraints(t *testing.T) {
	db := testhelpers.NewPostgresTestDB(t)

	testhelpers.CreateIngredient(t, db, "Flour", "g")

	err := db.Create(&models.Ingredient{Name: "Flour", MeasurementUnit: "g"}).Error
	require.Error(t, err, "duplicate (name, unit) pair must be rejected by the index")

	// same name under a different unit is a distinct row
	require.NoError(t, db.Create(&models.Ingredient{Name: "Flour", MeasurementUnit: "cups"}).Error)
}

func TestPostgresMembershipRace(t *testing.T) {
	db := testhelpers.NewPostgresTestDB(t)
	svc := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	user := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	recipe := testhelpers.CreateRecipe(t, db, author, "Bread", map[uuid.UUID]int{flour.ID: 200})

	// simulate a racing insert landing between the service's pre-check
	// and its own insert: the unique index surfaces the same Conflict
	require.NoError(t, db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error)
	_, err := svc.AddFavorite(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestPostgresRecipeNamePerAuthor(t *testing.T) {
	db := testhelpers.NewPostgresTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	other := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")

	input := service.RecipeInput{
		Name:        "Borscht",
		Text:        "Simmer.",
		CookingTime: 90,
		Ingredients: []service.IngredientAmount{{IngredientID: flour.ID, Amount: 100}},
	}
	_, err := svc.CreateRecipe(ctx, author.ID, input)
	require.NoError(t, err)

	_, err = svc.CreateRecipe(ctx, author.ID, input)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = svc.CreateRecipe(ctx, other.ID, input)
	assert.NoError(t, err, "same name under a different author is allowed")
}
