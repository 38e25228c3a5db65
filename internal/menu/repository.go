package menu

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
)

// Repository provides menu item, flavor, and mirror persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) CreateMenuItem(tx *gorm.DB, row *models.MenuItem) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateMenuItem(tx *gorm.DB, id int64, updates map[string]any) error {
	return r.conn(tx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) ReplaceRecipe(tx *gorm.DB, menuItemID int64, lines []models.MenuItemIngredient) error {
	conn := r.conn(tx)
	if err := conn.Where("menu_item_id = ?", menuItemID).
		Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return conn.Create(&lines).Error
}

func (r *Repository) FindMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var row models.MenuItem
	err := r.db.WithContext(ctx).Preload("Ingredients").First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindMenuItemByName(ctx context.Context, name string) (*models.MenuItem, error) {
	var row models.MenuItem
	err := r.db.WithContext(ctx).Preload("Ingredients").First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListMenuItems(ctx context.Context, includeUnavailable bool) ([]models.MenuItem, error) {
	query := r.db.WithContext(ctx).Preload("Ingredients")
	if !includeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	var rows []models.MenuItem
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

// ListMenuItemsByNames loads the named items with recipes in one query.
func (r *Repository) ListMenuItemsByNames(ctx context.Context, names []string) ([]models.MenuItem, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var rows []models.MenuItem
	err := r.db.WithContext(ctx).Preload("Ingredients").
		Where("name IN ?", names).
		Find(&rows).Error
	return rows, err
}

// MenuItemsUsingIngredient returns items whose recipe references the
// ingredient.
func (r *Repository) MenuItemsUsingIngredient(ctx context.Context, tx *gorm.DB, ingredientID int64) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	err := r.conn(tx).WithContext(ctx).
		Joins("JOIN menu_item_ingredients mii ON mii.menu_item_id = menu_items.id").
		Where("mii.ingredient_id = ?", ingredientID).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateFlavor(tx *gorm.DB, row *models.Flavor) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateFlavor(tx *gorm.DB, id int64, updates map[string]any) error {
	return r.conn(tx).Model(&models.Flavor{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) FindFlavorByID(ctx context.Context, id int64) (*models.Flavor, error) {
	var row models.Flavor
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListFlavors(ctx context.Context, includeUnavailable bool) ([]models.Flavor, error) {
	query := r.db.WithContext(ctx)
	if !includeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	var rows []models.Flavor
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) UpsertMirror(tx *gorm.DB, row *models.IngredientMirror) error {
	return r.conn(tx).Save(row).Error
}

func (r *Repository) FindMirror(ctx context.Context, id int64) (*models.IngredientMirror, error) {
	var row models.IngredientMirror
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListMirrors(ctx context.Context) ([]models.IngredientMirror, error) {
	var rows []models.IngredientMirror
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}
