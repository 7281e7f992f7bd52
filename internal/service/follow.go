package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// UserProfile is the profile projection shared by user listings and
// recipe authorship.
type UserProfile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// AuthorProjection extends the profile with the author's recipes,
// optionally truncated by a caller-supplied limit, plus a total count.
type AuthorProjection struct {
	UserProfile
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

func buildUserProfile(user *models.User, isSubscribed bool) UserProfile {
	return UserProfile{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
	}
}

// FollowService manages the user→author follow relation.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow subscribes userID to authorID and returns the author projection.
// Self-follow and duplicate follow fail validation; the checks and the
// insert share one transaction so a racing insert cannot slip between
// them.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uuid.UUID, recipesLimit *int) (*AuthorProjection, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if userID == authorID {
		return nil, newValidationError("author", "cannot follow self")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", userID, authorID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return newValidationError("author", "already following")
		}
		return tx.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, newValidationError("author", "already following")
		}
		return nil, err
	}

	return s.projectAuthor(ctx, &author, true, recipesLimit)
}

// Unfollow removes the follow record, failing with ErrNotFound when no
// such record exists.
func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uuid.UUID) error {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscriptions lists projections for every author the user follows.
func (s *FollowService) Subscriptions(ctx context.Context, userID uuid.UUID, recipesLimit *int) ([]AuthorProjection, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&authors).Error
	if err != nil {
		return nil, err
	}

	projections := make([]AuthorProjection, 0, len(authors))
	for i := range authors {
		p, err := s.projectAuthor(ctx, &authors[i], true, recipesLimit)
		if err != nil {
			return nil, err
		}
		projections = append(projections, *p)
	}
	return projections, nil
}

// IsFollowing reports whether userID follows authorID.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	return n > 0, err
}

func (s *FollowService) projectAuthor(ctx context.Context, author *models.User, isSubscribed bool, recipesLimit *int) (*AuthorProjection, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, err
	}

	query := db.Where("author_id = ?", author.ID).Order("created_at DESC")
	if recipesLimit != nil {
		query = query.Limit(*recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	shorts := make([]RecipeShort, 0, len(recipes))
	for i := range recipes {
		shorts = append(shorts, *buildShort(&recipes[i]))
	}
	return &AuthorProjection{
		UserProfile:  buildUserProfile(author, isSubscribed),
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}
