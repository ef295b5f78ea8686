package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/application/dto"
	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/domain"
)

// HistoryHandler serves the reconciled product stock history.
type HistoryHandler struct {
	uc *history.UseCase
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(uc *history.UseCase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

// ProductHistory returns the chronological, balance-verified movement history
// of a product. Optional query params: warehouse_id, warehouse_name,
// current_balance (override of the authoritative balance).
//
// GET /api/product-history/:productId
func (h *HistoryHandler) ProductHistory(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("productId"), 10, 64)
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PRODUCT_ID", Message: "productId must be a positive integer"})
	}

	in := history.Input{
		ProductID:     productID,
		WarehouseName: c.Query("warehouse_name"),
	}
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_WAREHOUSE_ID", Message: "warehouse_id must be an integer"})
		}
		in.WarehouseID = &id
	}
	if raw := c.Query("current_balance"); raw != "" {
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BALANCE", Message: "current_balance must be a number"})
		}
		in.CurrentBalance = &balance
	}

	res, err := h.uc.ProductHistory(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid input"})
		}
		if errors.Is(err, domain.ErrAuthRefreshFailed) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SOURCE_AUTH", Message: "source API session could not be refreshed"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	return c.JSON(dto.FromHistoryResult(res))
}
