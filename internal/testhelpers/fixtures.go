package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// CreateUser inserts an account with a unique email derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Username:     name,
		FirstName:    name,
		LastName:     "Tester",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// CreateIngredient inserts one catalog entry.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return &ingredient
}

// CreateTag inserts one tag with derived unique color and slug.
func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	suffix := uuid.New().String()[:6]
	tag := models.Tag{
		Name:  name + "-" + suffix,
		Color: "#" + suffix,
		Slug:  name + "-" + suffix,
	}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

// CreateRecipe inserts a recipe with the given line items, bypassing the
// service write path. amounts maps ingredient id to amount.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, amounts map[uuid.UUID]int) *models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		Name:        name,
		AuthorID:    author.ID,
		Text:        "test recipe",
		CookingTime: 10,
	}
	require.NoError(t, db.Omit("Tags", "Ingredients").Create(&recipe).Error)
	for ingredientID, amount := range amounts {
		item := models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: ingredientID,
			Amount:       amount,
		}
		require.NoError(t, db.Create(&item).Error)
	}
	return &recipe
}
