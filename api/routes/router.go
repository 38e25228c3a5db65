package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infinity-cafe/cafe-backend/api/controllers"
	"github.com/infinity-cafe/cafe-backend/api/middleware"
	internalauth "github.com/infinity-cafe/cafe-backend/internal/auth"
	"github.com/infinity-cafe/cafe-backend/internal/inventory"
	"github.com/infinity-cafe/cafe-backend/internal/kitchen"
	"github.com/infinity-cafe/cafe-backend/internal/menu"
	"github.com/infinity-cafe/cafe-backend/internal/orders"
	"github.com/infinity-cafe/cafe-backend/internal/reports"
	"github.com/infinity-cafe/cafe-backend/internal/stock"
	"github.com/infinity-cafe/cafe-backend/internal/users"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

// Services bundles everything the router mounts.
type Services struct {
	Users     users.Service
	Inventory inventory.Service
	Menu      menu.Service
	Orders    orders.Service
	Kitchen   kitchen.Service
	Reports   reports.Service
	Stock     *stock.Engine
	Limiter   *internalauth.LoginLimiter
	HealthDB  controllers.Pinger
	HealthKV  controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	admin := string(enums.RoleAdmin)
	barista := string(enums.RoleBarista)
	kitchenRole := string(enums.RoleKitchen)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.NewHealthDeps(svcs.HealthDB, svcs.HealthKV)))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Service-to-service surfaces. These stay off the JWT chain: they are
	// reachable only on the internal network.
	r.Post("/recipes/batch", controllers.BatchRecipes(svcs.Menu, logg))
	r.Post("/internal/events/ingredient", controllers.IngredientEventReceive(svcs.Menu, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(svcs.Limiter, logg)).Post("/login", controllers.AuthLogin(svcs.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Post("/", controllers.AuthRegister(svcs.Users, logg))
			r.Delete("/{userId}", controllers.UserDeactivate(svcs.Users, logg))
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", controllers.IngredientList(svcs.Inventory, logg))
			r.Get("/{ingredientId}", controllers.IngredientGet(svcs.Inventory, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin))
				r.Post("/", controllers.IngredientCreate(svcs.Inventory, logg))
				r.Patch("/{ingredientId}", controllers.IngredientUpdate(svcs.Inventory, logg))
				r.Post("/{ingredientId}/restock", controllers.IngredientRestock(svcs.Inventory, logg))
				r.Delete("/{ingredientId}", controllers.IngredientDelete(svcs.Inventory, logg))
			})
		})

		r.Route("/flavor-mappings", func(r chi.Router) {
			r.Get("/", controllers.FlavorMappingList(svcs.Inventory, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin))
				r.Post("/", controllers.FlavorMappingCreate(svcs.Inventory, logg))
				r.Patch("/{mappingId}", controllers.FlavorMappingUpdate(svcs.Inventory, logg))
				r.Delete("/{mappingId}", controllers.FlavorMappingDelete(svcs.Inventory, logg))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin, barista))
			r.Post("/check_and_consume", controllers.StockCheckAndConsume(svcs.Stock, logg))
			r.Post("/rollback/{orderId}", controllers.StockRollback(svcs.Stock, logg))
			r.Post("/rollback_partial/{orderId}", controllers.StockRollbackPartial(svcs.Stock, logg))
			r.Get("/history", controllers.StockHistoryList(svcs.Inventory, logg))
			r.Get("/consumption/{orderId}", controllers.ConsumptionLogGet(svcs.Inventory, logg))
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", controllers.MenuItemList(svcs.Menu, logg))
			r.Get("/{menuItemId}", controllers.MenuItemGet(svcs.Menu, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin))
				r.Post("/", controllers.MenuItemCreate(svcs.Menu, logg))
				r.Patch("/{menuItemId}", controllers.MenuItemUpdate(svcs.Menu, logg))
				r.Delete("/{menuItemId}", controllers.MenuItemDelete(svcs.Menu, logg))
			})
		})

		r.Route("/flavors", func(r chi.Router) {
			r.Get("/", controllers.FlavorList(svcs.Menu, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin))
				r.Post("/", controllers.FlavorCreate(svcs.Menu, logg))
				r.Patch("/{flavorId}", controllers.FlavorUpdate(svcs.Menu, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, barista))
				r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			})
			r.With(middleware.RequireRole(logg, admin, barista, kitchenRole)).
				Post("/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
		})

		r.Route("/kitchen", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin, kitchenRole))
			r.Get("/tickets", controllers.KitchenTicketList(svcs.Kitchen, logg))
			r.Get("/tickets/{orderId}", controllers.KitchenTicketGet(svcs.Kitchen, logg))
			r.Post("/tickets/{orderId}/advance", controllers.KitchenTicketAdvance(svcs.Kitchen, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin))
			r.Get("/sales", controllers.ReportSales(svcs.Reports, logg))
			r.Get("/ingredient-usage", controllers.ReportIngredientUsage(svcs.Reports, logg))
			r.Get("/low-stock", controllers.ReportLowStock(svcs.Reports, logg))
		})
	})

	return r
}
