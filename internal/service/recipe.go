package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// IngredientAmount is one line of a recipe payload.
type IngredientAmount struct {
	IngredientID uuid.UUID `json:"id"`
	Amount       int       `json:"amount"`
}

// RecipeInput carries the scalar fields, tag set and ingredient list of a
// create or update request.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string // base64 payload; empty keeps the current image
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeShort is the minimal projection used in list and membership
// responses.
type RecipeShort struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// RecipeIngredientView is one resolved line item of a recipe detail.
type RecipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeDetail is the full projection returned from reads and writes.
type RecipeDetail struct {
	ID               uuid.UUID              `json:"id"`
	Tags             []models.Tag           `json:"tags"`
	Author           UserProfile            `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeFilter narrows the recipe feed.
type RecipeFilter struct {
	AuthorID    *uuid.UUID
	TagSlugs    []string
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
}

// RecipeService owns the recipe aggregate: validation, atomic writes over
// the recipe row, its tag set and its line items, and the projections.
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// validateInput applies every payload check before any mutation happens.
// Order: amounts, duplicate ingredients, cooking time. Ingredient
// existence is checked separately because it needs the database.
func validateInput(input RecipeInput) error {
	for _, item := range input.Ingredients {
		if item.Amount <= 0 {
			return newValidationError("amount", "quantity must be positive")
		}
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Ingredients))
	for _, item := range input.Ingredients {
		if _, ok := seen[item.IngredientID]; ok {
			return newValidationError("ingredients", "duplicate ingredient in recipe")
		}
		seen[item.IngredientID] = struct{}{}
	}
	if input.CookingTime < 1 {
		return newValidationError("cooking_time", "cooking time must be at least 1")
	}
	return nil
}

// resolveIngredients loads every referenced ingredient and fails with
// ErrNotFound if any id is unknown to the catalog.
func (s *RecipeService) resolveIngredients(ctx context.Context, items []IngredientAmount) ([]models.Ingredient, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.IngredientID)
	}
	var ingredients []models.Ingredient
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
			return nil, err
		}
	}
	if len(ingredients) != len(ids) {
		return nil, ErrNotFound
	}
	return ingredients, nil
}

func (s *RecipeService) resolveTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, ErrNotFound
	}
	return tags, nil
}

// CreateRecipe validates the payload, persists the recipe row, attaches
// the tag set and bulk-inserts the line items, all in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*RecipeDetail, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.resolveIngredients(ctx, input.Ingredients); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ? AND name = ?", authorID, input.Name).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	imageURL, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:        input.Name,
		AuthorID:    authorID,
		Text:        input.Text,
		CookingTime: input.CookingTime,
		ImageURL:    imageURL,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return createLineItems(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		// the transaction rolled back, so the uploaded image is orphaned
		s.removeImage(imageURL)
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.GetRecipe(ctx, recipe.ID, &authorID)
}

// UpdateRecipe replaces the tag set wholesale, rebuilds every line item
// and applies the scalar changes as one all-or-nothing transaction.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, actorID uuid.UUID, input RecipeInput) (*RecipeDetail, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, ErrForbidden
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.resolveIngredients(ctx, input.Ingredients); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, input.TagIDs)
	if err != nil {
		return nil, err
	}

	if input.Name != recipe.Name {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
			Where("author_id = ? AND name = ?", recipe.AuthorID, input.Name).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrConflict
		}
	}

	oldImage := recipe.ImageURL
	newImage := oldImage
	if input.Image != "" {
		newImage, err = s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := createLineItems(tx, recipe.ID, input.Ingredients); err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]interface{}{
			"name":         input.Name,
			"text":         input.Text,
			"cooking_time": input.CookingTime,
			"image_url":    newImage,
		}).Error
	})
	if err != nil {
		if newImage != oldImage {
			s.removeImage(newImage)
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if newImage != oldImage {
		s.removeImage(oldImage)
	}

	return s.GetRecipe(ctx, recipe.ID, &actorID)
}

// DeleteRecipe removes the recipe with its owned rows, then removes the
// stored image. Image cleanup is best-effort and never fails the delete.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, actorID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != actorID {
		return ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipe.ID).Error
	})
	if err != nil {
		return err
	}

	s.removeImage(recipe.ImageURL)
	return nil
}

// GetRecipe returns the full detail projection. viewerID, when present,
// resolves the is_favorited / is_in_shopping_cart / is_subscribed flags.
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID, viewerID *uuid.UUID) (*RecipeDetail, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(ctx, &recipe, viewerID)
}

// ListRecipes returns the feed, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, viewerID *uuid.UUID) ([]RecipeDetail, error) {
	query := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("created_at DESC")

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.Where(
			"id IN (?)",
			s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs),
		)
	}
	if filter.FavoritedBy != nil {
		query = query.Where(
			"id IN (?)",
			s.db.Table("favorites").Select("recipe_id").Where("user_id = ?", *filter.FavoritedBy),
		)
	}
	if filter.InCartOf != nil {
		query = query.Where(
			"id IN (?)",
			s.db.Table("carts").Select("recipe_id").Where("user_id = ?", *filter.InCartOf),
		)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	details := make([]RecipeDetail, 0, len(recipes))
	for i := range recipes {
		detail, err := s.buildDetail(ctx, &recipes[i], viewerID)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (s *RecipeService) buildDetail(ctx context.Context, recipe *models.Recipe, viewerID *uuid.UUID) (*RecipeDetail, error) {
	detail := &RecipeDetail{
		ID:          recipe.ID,
		Tags:        recipe.Tags,
		Author:      buildUserProfile(&recipe.Author, false),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Ingredients: make([]RecipeIngredientView, 0, len(recipe.Ingredients)),
	}
	if detail.Tags == nil {
		detail.Tags = []models.Tag{}
	}
	for _, item := range recipe.Ingredients {
		detail.Ingredients = append(detail.Ingredients, RecipeIngredientView{
			ID:              item.IngredientID,
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		})
	}

	if viewerID != nil {
		db := s.db.WithContext(ctx)
		var n int64
		if err := db.Model(&models.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", *viewerID, recipe.ID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		detail.IsFavorited = n > 0
		if err := db.Model(&models.Cart{}).
			Where("user_id = ? AND recipe_id = ?", *viewerID, recipe.ID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		detail.IsInShoppingCart = n > 0
		if err := db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", *viewerID, recipe.AuthorID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		detail.Author.IsSubscribed = n > 0
	}
	return detail, nil
}

func buildShort(recipe *models.Recipe) *RecipeShort {
	return &RecipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func createLineItems(tx *gorm.DB, recipeID uuid.UUID, items []IngredientAmount) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&rows).Error
}

func (s *RecipeService) storeImage(ctx context.Context, encoded string) (string, error) {
	if encoded == "" || s.images == nil {
		return "", nil
	}
	return s.images.Store(ctx, encoded)
}

func (s *RecipeService) removeImage(imageURL string) {
	if imageURL == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(context.Background(), imageURL); err != nil {
		log.Printf("[RecipeService] image cleanup failed for %s: %v", imageURL, err)
	}
}
