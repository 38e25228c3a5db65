package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/infinity-cafe/cafe-backend/api/controllers"
	"github.com/infinity-cafe/cafe-backend/api/routes"
	internalauth "github.com/infinity-cafe/cafe-backend/internal/auth"
	"github.com/infinity-cafe/cafe-backend/internal/inventory"
	"github.com/infinity-cafe/cafe-backend/internal/kitchen"
	"github.com/infinity-cafe/cafe-backend/internal/menu"
	"github.com/infinity-cafe/cafe-backend/internal/orders"
	"github.com/infinity-cafe/cafe-backend/internal/reports"
	"github.com/infinity-cafe/cafe-backend/internal/stock"
	"github.com/infinity-cafe/cafe-backend/internal/users"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/migrate"
	"github.com/infinity-cafe/cafe-backend/pkg/outbox"
	"github.com/infinity-cafe/cafe-backend/pkg/redis"
	"github.com/google/uuid"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, svcs),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-stopCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		return routes.Services{}, err
	}

	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	engine := stock.NewEngine(dbClient, stock.NewHTTPRecipeSource(cfg.Menu), logg)

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, engine, redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	kitchenService, err := kitchen.NewService(dbClient.DB(), kitchen.UpdaterFunc(
		func(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string) error {
			_, err := orderService.UpdateStatus(ctx, id, next, actor)
			return err
		}), logg)
	if err != nil {
		return routes.Services{}, err
	}

	reportService, err := reports.NewService(dbClient.DB(), logg)
	if err != nil {
		return routes.Services{}, err
	}

	userService, err := users.NewService(dbClient.DB(), cfg.JWT, cfg.Password, logg)
	if err != nil {
		return routes.Services{}, err
	}

	var healthDB controllers.Pinger = dbClient
	var healthKV controllers.Pinger = redisClient

	return routes.Services{
		Users:     userService,
		Inventory: inventoryService,
		Menu:      menuService,
		Orders:    orderService,
		Kitchen:   kitchenService,
		Reports:   reportService,
		Stock:     engine,
		Limiter:   internalauth.NewLoginLimiter(redisClient, cfg.AuthRateLimit, logg),
		HealthDB:  healthDB,
		HealthKV:  healthKV,
	}, nil
}
