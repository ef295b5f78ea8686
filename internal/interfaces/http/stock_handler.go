package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/remflow/stockhistory-api/internal/application/dto"
	"github.com/remflow/stockhistory-api/internal/application/stock"
)

// StockHandler serves flow-derived realtime stock per warehouse.
type StockHandler struct {
	uc *stock.RealtimeUseCase
}

// NewStockHandler constructs the handler.
func NewStockHandler(uc *stock.RealtimeUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// RealtimeGoods lists a warehouse's products with residues computed from the
// flow feed.
//
// GET /api/realtime-warehouse-goods/:warehouseId
func (h *StockHandler) RealtimeGoods(c *fiber.Ctx) error {
	warehouseID, err := strconv.ParseInt(c.Params("warehouseId"), 10, 64)
	if err != nil || warehouseID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_WAREHOUSE_ID", Message: "warehouseId must be a positive integer"})
	}

	res, err := h.uc.WarehouseGoods(c.Context(), warehouseID)
	if err != nil {
		return sourceError(c, err)
	}
	return c.JSON(dto.FromStockResult(res))
}
