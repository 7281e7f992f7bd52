package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShoppingItem is one aggregated line of the shopping list: all amounts
// of one (ingredient name, measurement unit) pair summed across the
// recipes in the user's cart.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total"`
}

// ShoppingListService computes the merged shopping list for a user's
// cart. Nothing is persisted; the list is derived on every read.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate collects every line item reachable from the user's cart,
// grouped by (name, unit) with amounts summed. The same ingredient under
// different units stays in separate groups. An empty cart yields an
// empty slice, not an error. Rows come back in grouping-key order, so
// the output is deterministic.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredients.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Render produces the downloadable text document: a title line followed
// by one line per aggregated ingredient.
func (s *ShoppingListService) Render(items []ShoppingItem) string {
	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}

// Export aggregates and renders in one step for the download endpoint.
func (s *ShoppingListService) Export(ctx context.Context, userID uuid.UUID) (string, error) {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.Render(items), nil
}
