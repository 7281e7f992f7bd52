package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// MembershipService implements the add/remove toggle contract shared by
// Favorite and Cart: add fails with ErrConflict when the pair exists,
// remove fails with ErrNotFound when it does not.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

func (s *MembershipService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*RecipeShort, error) {
	return s.add(ctx, userID, recipeID, &models.Favorite{}, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

func (s *MembershipService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.remove(ctx, userID, recipeID, &models.Favorite{})
}

func (s *MembershipService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*RecipeShort, error) {
	return s.add(ctx, userID, recipeID, &models.Cart{}, &models.Cart{UserID: userID, RecipeID: recipeID})
}

func (s *MembershipService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.remove(ctx, userID, recipeID, &models.Cart{})
}

// add creates the membership record and returns the recipe's short
// projection. The pre-check and the insert run in one transaction; a
// unique violation from a racing insert maps to the same ErrConflict.
func (s *MembershipService) add(ctx context.Context, userID, recipeID uuid.UUID, model, record interface{}) (*RecipeShort, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(model).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		return tx.Create(record).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) || isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return buildShort(&recipe), nil
}

func (s *MembershipService) remove(ctx context.Context, userID, recipeID uuid.UUID, model interface{}) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
