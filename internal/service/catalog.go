package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// CatalogService serves the Tag and Ingredient reference data. Both are
// read-mostly; ingredients are bulk-loaded at setup time.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// ListIngredients returns the catalog, optionally narrowed to names
// starting with namePrefix.
func (s *CatalogService) ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name")
	if namePrefix != "" {
		query = query.Where("name LIKE ?", namePrefix+"%")
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}

// ImportIngredientsCSV loads name,unit rows into the catalog and returns
// the number of rows created. Rows that collide with an existing
// (name, unit) pair are skipped so reruns stay idempotent.
func (s *CatalogService) ImportIngredientsCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	created := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, err
		}
		if len(record) < 2 {
			continue
		}
		ingredient := models.Ingredient{
			Name:            record[0],
			MeasurementUnit: record[1],
		}
		if err := s.db.WithContext(ctx).Create(&ingredient).Error; err != nil {
			if isUniqueViolation(err) {
				log.Printf("[CatalogService] skipping duplicate ingredient %q (%s)", ingredient.Name, ingredient.MeasurementUnit)
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
