package database

import (
	"gorm.io/gorm"

	"github.com/pantryshare/backend/internal/models"
)

// RunMigrations brings the schema up to date. AutoMigrate creates the
// composite unique indexes the write paths rely on; the services treat
// those constraints as the authority for concurrent inserts.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.Cart{},
	)
}
