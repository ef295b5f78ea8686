package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/remflow/stockhistory-api/internal/application/catalog"
	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/application/stock"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	HistoryUC *history.UseCase
	StockUC   *stock.RealtimeUseCase
	CatalogUC *catalog.UseCase
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	api.Get("/branches", catalogHandler.Branches)
	api.Get("/warehouses/:branchId", catalogHandler.Warehouses)

	stockHandler := NewStockHandler(deps.StockUC)
	api.Get("/realtime-warehouse-goods/:warehouseId", stockHandler.RealtimeGoods)

	historyHandler := NewHistoryHandler(deps.HistoryUC)
	api.Get("/product-history/:productId", historyHandler.ProductHistory)
}
