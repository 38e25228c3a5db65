package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/pagination"
)

// Repository provides ingredient and flavor mapping persistence.
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

func (r *Repository) CreateIngredient(tx *gorm.DB, row *models.Ingredient) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateIngredient(tx *gorm.DB, id int64, updates map[string]any) error {
	return r.conn(tx).Model(&models.Ingredient{}).Where("id = ?", id).Updates(updates).Error
}

// FindIngredientByID loads one ingredient, locking the row when forUpdate is
// set on a dialect that supports it.
func (r *Repository) FindIngredientByID(ctx context.Context, tx *gorm.DB, id int64, forUpdate bool) (*models.Ingredient, error) {
	query := r.conn(tx).WithContext(ctx)
	if forUpdate {
		query = lockForUpdate(query)
	}
	var row models.Ingredient
	err := query.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var row models.Ingredient
	err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListIngredients returns one page plus a buffer row for cursor detection.
func (r *Repository) ListIngredients(ctx context.Context, input ListIngredientsInput, cursor *pagination.Cursor, limit int) ([]models.Ingredient, error) {
	query := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if !input.IncludeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	if input.Category != nil {
		query = query.Where("category = ?", *input.Category)
	}
	if input.LowStockOnly {
		query = query.Where("current_quantity < minimum_quantity")
	}
	if input.Search != "" {
		query = query.Where("name LIKE ?", "%"+input.Search+"%")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Ingredient
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) ListLowStock(ctx context.Context) ([]models.Ingredient, error) {
	var rows []models.Ingredient
	err := r.db.WithContext(ctx).
		Where("is_available = ? AND current_quantity < minimum_quantity", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateFlavorMapping(tx *gorm.DB, row *models.FlavorMapping) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateFlavorMapping(tx *gorm.DB, id int64, updates map[string]any) error {
	return r.conn(tx).Model(&models.FlavorMapping{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) DeleteFlavorMapping(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.FlavorMapping{}, id).Error
}

func (r *Repository) FindFlavorMappingByID(ctx context.Context, id int64) (*models.FlavorMapping, error) {
	var row models.FlavorMapping
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindFlavorMappingByName(ctx context.Context, tx *gorm.DB, name string) (*models.FlavorMapping, error) {
	var row models.FlavorMapping
	err := r.conn(tx).WithContext(ctx).First(&row, "flavor_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListFlavorMappings(ctx context.Context) ([]models.FlavorMapping, error) {
	var rows []models.FlavorMapping
	err := r.db.WithContext(ctx).Order("flavor_name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateStockHistory(tx *gorm.DB, row *models.StockHistory) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) ListStockHistory(ctx context.Context, input ListStockHistoryInput, cursor *pagination.Cursor, limit int) ([]models.StockHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.StockHistory{})
	if input.IngredientID != nil {
		query = query.Where("ingredient_id = ?", *input.IngredientID)
	}
	if input.Action != nil {
		query = query.Where("action = ?", *input.Action)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.StockHistory
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) FindConsumptionLog(ctx context.Context, orderID string) (*models.ConsumptionLog, []models.ConsumptionDetail, error) {
	var header models.ConsumptionLog
	err := r.db.WithContext(ctx).First(&header, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var details []models.ConsumptionDetail
	if err := r.db.WithContext(ctx).
		Where("consumption_log_id = ?", header.ID).
		Order("id ASC").
		Find(&details).Error; err != nil {
		return nil, nil, err
	}
	return &header, details, nil
}
