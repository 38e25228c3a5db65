package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
)

// Repository provides order persistence.
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

func (r *Repository) CreateOrder(tx *gorm.DB, row *models.Order) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateOrder(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	return r.conn(tx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) FindOrderByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.conn(tx).WithContext(ctx).Preload("Items").First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListOrders(ctx context.Context, input ListOrdersInput) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if input.Status != nil {
		query = query.Where("status = ?", *input.Status)
	}
	if input.Date != nil {
		start := input.Date.Truncate(24 * time.Hour)
		query = query.Where("created_at >= ? AND created_at < ?", start, start.Add(24*time.Hour))
	}
	limit := input.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var rows []models.Order
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// MaxQueueNumberSince is the fallback queue counter when redis is down: the
// highest number handed out since the start of the business day.
func (r *Repository) MaxQueueNumberSince(ctx context.Context, tx *gorm.DB, since time.Time) (int, error) {
	var max *int
	err := r.conn(tx).WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Select("MAX(queue_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *Repository) CreateKitchenTicket(tx *gorm.DB, row *models.KitchenTicket) error {
	return r.conn(tx).Create(row).Error
}

func (r *Repository) UpdateKitchenTicket(tx *gorm.DB, orderID uuid.UUID, updates map[string]any) error {
	return r.conn(tx).Model(&models.KitchenTicket{}).Where("order_id = ?", orderID).Updates(updates).Error
}
