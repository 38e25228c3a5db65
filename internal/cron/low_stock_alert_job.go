package cron

import (
	"context"
	"fmt"

	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

type LowStockAlertJobParams struct {
	Logger     *logger.Logger
	Repository lowStockRepo
}

type lowStockRepo interface {
	ListLowStock(ctx context.Context) ([]models.Ingredient, error)
}

// NewLowStockAlertJob surfaces ingredients sitting under their reorder
// threshold into the logs so operators see them without opening the app.
func NewLowStockAlertJob(params LowStockAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &lowStockAlertJob{logg: params.Logger, repo: params.Repository}, nil
}

type lowStockAlertJob struct {
	logg *logger.Logger
	repo lowStockRepo
}

func (j *lowStockAlertJob) Name() string { return "low-stock-alert" }

func (j *lowStockAlertJob) Run(ctx context.Context) error {
	rows, err := j.repo.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock alert: %w", err)
	}
	if len(rows) == 0 {
		j.logg.Info(ctx, "no ingredients under minimum stock")
		return nil
	}
	for _, row := range rows {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"ingredient":       row.Name,
			"current_quantity": row.CurrentQuantity,
			"minimum_quantity": row.MinimumQuantity,
			"unit":             string(row.Unit),
		})
		j.logg.Warn(logCtx, "ingredient under minimum stock")
	}
	return nil
}
