package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryshare/backend/internal/models"
	"github.com/pantryshare/backend/internal/service"
	"github.com/pantryshare/backend/internal/testhelpers"
)

type fakeImageStore struct {
	stored    int
	removed   []string
	removeErr error
}

func (f *fakeImageStore) Store(ctx context.Context, encoded string) (string, error) {
	f.stored++
	return fmt.Sprintf("https://img.test/%d.png", f.stored), nil
}

func (f *fakeImageStore) Remove(ctx context.Context, imageURL string) error {
	f.removed = append(f.removed, imageURL)
	return f.removeErr
}

func TestCreateRecipe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	sugar := testhelpers.CreateIngredient(t, db, "Sugar", "g")
	breakfast := testhelpers.CreateTag(t, db, "breakfast")

	detail, err := svc.CreateRecipe(ctx, author.ID, service.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
		TagIDs:      []uuid.UUID{breakfast.ID},
		Ingredients: []service.IngredientAmount{
			{IngredientID: flour.ID, Amount: 200},
			{IngredientID: sugar.ID, Amount: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", detail.Name)
	assert.Len(t, detail.Ingredients, 2)
	assert.Len(t, detail.Tags, 1)
	assert.Equal(t, author.Email, detail.Author.Email)

	var lineItems int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", detail.ID).Count(&lineItems).Error)
	assert.EqualValues(t, 2, lineItems)
}

func TestCreateRecipeNonPositiveAmount(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)

	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")

	_, err := svc.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
		Name:        "Bad",
		Text:        "x",
		CookingTime: 5,
		Ingredients: []service.IngredientAmount{{IngredientID: flour.ID, Amount: 0}},
	})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "amount", validationErr.Field)

	// nothing persisted
	var recipes, lineItems int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&lineItems).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, lineItems)
}

func TestCreateRecipeDuplicateIngredient(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)

	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")

	_, err := svc.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
		Name:        "Bad",
		Text:        "x",
		CookingTime: 5,
		Ingredients: []service.IngredientAmount{
			{IngredientID: flour.ID, Amount: 2},
			{IngredientID: flour.ID, Amount: 3},
		},
	})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "ingredients", validationErr.Field)

	var recipes int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipes).Error)
	assert.Zero(t, recipes)
}

func TestCreateRecipeUnknownIngredient(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	author := testhelpers.CreateUser(t, db, "alice")

	_, err := svc.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
		Name:        "Bad",
		Text:        "x",
		CookingTime: 5,
		Ingredients: []service.IngredientAmount{{IngredientID: uuid.New(), Amount: 2}},
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateRecipeCookingTimeTooLow(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	author := testhelpers.CreateUser(t, db, "alice")

	_, err := svc.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
		Name:        "Bad",
		Text:        "x",
		CookingTime: 0,
	})
	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cooking_time", validationErr.Field)
}

func TestCreateRecipeDuplicateNamePerAuthor(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")

	first, err := svc.CreateRecipe(ctx, alice.ID, service.RecipeInput{
		Name: "Borscht", Text: "x", CookingTime: 60,
	})
	require.NoError(t, err)

	_, err = svc.CreateRecipe(ctx, alice.ID, service.RecipeInput{
		Name: "Borscht", Text: "y", CookingTime: 30,
	})
	assert.ErrorIs(t, err, service.ErrConflict)

	// the first recipe is unaffected
	kept, err := svc.GetRecipe(ctx, first.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", kept.Text)

	// a different author may reuse the name
	_, err = svc.CreateRecipe(ctx, bob.ID, service.RecipeInput{
		Name: "Borscht", Text: "z", CookingTime: 45,
	})
	assert.NoError(t, err)
}

func TestUpdateRecipeRebuildsLineItems(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	sugar := testhelpers.CreateIngredient(t, db, "Sugar", "g")
	milk := testhelpers.CreateIngredient(t, db, "Milk", "ml")
	oldTag := testhelpers.CreateTag(t, db, "old")
	newTag := testhelpers.CreateTag(t, db, "new")

	created, err := svc.CreateRecipe(ctx, author.ID, service.RecipeInput{
		Name:        "Pancakes",
		Text:        "v1",
		CookingTime: 20,
		TagIDs:      []uuid.UUID{oldTag.ID},
		Ingredients: []service.IngredientAmount{
			{IngredientID: flour.ID, Amount: 200},
			{IngredientID: sugar.ID, Amount: 50},
		},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRecipe(ctx, created.ID, author.ID, service.RecipeInput{
		Name:        "Pancakes Deluxe",
		Text:        "v2",
		CookingTime: 25,
		TagIDs:      []uuid.UUID{newTag.ID},
		Ingredients: []service.IngredientAmount{
			{IngredientID: milk.ID, Amount: 300},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pancakes Deluxe", updated.Name)
	assert.Equal(t, 25, updated.CookingTime)

	// the line-item set equals exactly the update input, no stale rows
	var items []models.RecipeIngredient
	require.NoError(t, db.Where("recipe_id = ?", created.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, milk.ID, items[0].IngredientID)
	assert.Equal(t, 300, items[0].Amount)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, newTag.ID, updated.Tags[0].ID)
}

func TestUpdateRecipeNotAuthor(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	recipe := testhelpers.CreateRecipe(t, db, alice, "Soup", nil)

	_, err := svc.UpdateRecipe(ctx, recipe.ID, bob.ID, service.RecipeInput{
		Name: "Soup", Text: "stolen", CookingTime: 5,
	})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestDeleteRecipeRemovesOwnedRowsAndImage(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	images := &fakeImageStore{removeErr: errors.New("s3 down")}
	svc := service.NewRecipeService(db, images)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	fan := testhelpers.CreateUser(t, db, "bob")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	recipe := testhelpers.CreateRecipe(t, db, author, "Bread", map[uuid.UUID]int{flour.ID: 500})
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("image_url", "https://img.test/1.png").Error)
	require.NoError(t, db.Create(&models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.Cart{UserID: fan.ID, RecipeID: recipe.ID}).Error)

	// image removal failing must not fail the delete
	require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID, author.ID))
	assert.Equal(t, []string{"https://img.test/1.png"}, images.removed)

	var count int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Cart{}).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err := svc.GetRecipe(ctx, recipe.ID, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetRecipeViewerFlags(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewRecipeService(db, nil)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, "alice")
	viewer := testhelpers.CreateUser(t, db, "bob")
	recipe := testhelpers.CreateRecipe(t, db, author, "Stew", nil)
	require.NoError(t, db.Create(&models.Favorite{UserID: viewer.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserID: viewer.ID, AuthorID: author.ID}).Error)

	detail, err := svc.GetRecipe(ctx, recipe.ID, &viewer.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.True(t, detail.Author.IsSubscribed)

	anonymous, err := svc.GetRecipe(ctx, recipe.ID, nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.Author.IsSubscribed)
}
