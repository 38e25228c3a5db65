package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// SalesSummary aggregates finished orders for a date range.
type SalesSummary struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	OrderCount int             `json:"order_count"`
	ItemCount  int             `json:"item_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	PerMenu    []MenuSales     `json:"per_menu"`
}

// MenuSales is the per-menu breakdown of a sales summary.
type MenuSales struct {
	MenuName string          `json:"menu_name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// IngredientUsage is the consumption total for one ingredient over a range.
type IngredientUsage struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Consumed     float64 `json:"consumed"`
	Unit         string  `json:"unit"`
}

// LowStockItem flags an ingredient under its reorder threshold.
type LowStockItem struct {
	IngredientID    int64   `json:"ingredient_id"`
	Name            string  `json:"name"`
	CurrentQuantity float64 `json:"current_quantity"`
	MinimumQuantity float64 `json:"minimum_quantity"`
	Unit            string  `json:"unit"`
}

// Service exposes reporting queries.
type Service interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	IngredientUsage(ctx context.Context, from, to time.Time) ([]IngredientUsage, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
}

type service struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewService constructs the report service.
func NewService(db *gorm.DB, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{db: db, logg: logg}, nil
}

// SalesSummary counts finished orders in [from, to) and prices their items
// against the current menu. Items whose menu entry has been removed are
// counted with zero revenue rather than dropped.
func (s *service) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end must be after start")
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND created_at >= ? AND created_at < ?", enums.OrderDone, from, to).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	prices, err := s.menuPrices(ctx)
	if err != nil {
		return nil, err
	}
	flavorPrices, err := s.flavorPrices(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SalesSummary{From: from, To: to, Revenue: decimal.Zero}
	perMenu := map[string]*MenuSales{}
	var menuOrder []string
	for i := range orders {
		summary.OrderCount++
		for _, item := range orders[i].Items {
			summary.ItemCount += item.Quantity

			lineRevenue := decimal.Zero
			if price, ok := prices[item.MenuName]; ok {
				lineRevenue = price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			}
			if extra, ok := flavorPrices[item.Preference]; ok && item.Preference != "" {
				lineRevenue = lineRevenue.Add(extra.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
			summary.Revenue = summary.Revenue.Add(lineRevenue)

			entry, ok := perMenu[item.MenuName]
			if !ok {
				entry = &MenuSales{MenuName: item.MenuName, Revenue: decimal.Zero}
				perMenu[item.MenuName] = entry
				menuOrder = append(menuOrder, item.MenuName)
			}
			entry.Quantity += item.Quantity
			entry.Revenue = entry.Revenue.Add(lineRevenue)
		}
	}

	for _, name := range menuOrder {
		summary.PerMenu = append(summary.PerMenu, *perMenu[name])
	}
	return summary, nil
}

// IngredientUsage sums stock deducted by consumption in [from, to), read
// from the audit trail rather than the ledger so rolled-back orders still
// show as churn.
func (s *service) IngredientUsage(ctx context.Context, from, to time.Time) ([]IngredientUsage, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end must be after start")
	}

	type usageRow struct {
		IngredientID int64
		Consumed     float64
	}
	var rows []usageRow
	err := s.db.WithContext(ctx).Model(&models.StockHistory{}).
		Select("ingredient_id, SUM(-quantity_changed) AS consumed").
		Where("action = ? AND created_at >= ? AND created_at < ?", enums.StockActionConsume, from, to).
		Group("ingredient_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.IngredientID)
	}
	var ingredients []models.Ingredient
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[int64]*models.Ingredient, len(ingredients))
	for i := range ingredients {
		byID[ingredients[i].ID] = &ingredients[i]
	}

	out := make([]IngredientUsage, 0, len(rows))
	for _, row := range rows {
		usage := IngredientUsage{IngredientID: row.IngredientID, Consumed: row.Consumed}
		if ing, ok := byID[row.IngredientID]; ok {
			usage.Name = ing.Name
			usage.Unit = string(ing.Unit)
		}
		out = append(out, usage)
	}
	return out, nil
}

func (s *service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	var rows []models.Ingredient
	err := s.db.WithContext(ctx).
		Where("is_available = ? AND current_quantity < minimum_quantity", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]LowStockItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, LowStockItem{
			IngredientID:    row.ID,
			Name:            row.Name,
			CurrentQuantity: row.CurrentQuantity,
			MinimumQuantity: row.MinimumQuantity,
			Unit:            string(row.Unit),
		})
	}
	return out, nil
}

func (s *service) menuPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		prices[item.Name] = item.Price
	}
	return prices, nil
}

func (s *service) flavorPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	var flavors []models.Flavor
	if err := s.db.WithContext(ctx).Find(&flavors).Error; err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(flavors))
	for _, f := range flavors {
		prices[f.Name] = f.AdditionalPrice
	}
	return prices, nil
}
