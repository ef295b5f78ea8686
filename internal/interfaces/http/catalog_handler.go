package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/remflow/stockhistory-api/internal/application/catalog"
	"github.com/remflow/stockhistory-api/internal/application/dto"
	"github.com/remflow/stockhistory-api/internal/domain"
)

// CatalogHandler serves the branch and warehouse catalog of the source account.
type CatalogHandler struct {
	uc *catalog.UseCase
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(uc *catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// Branches lists the account branches.
//
// GET /api/branches
func (h *CatalogHandler) Branches(c *fiber.Ctx) error {
	branches, err := h.uc.Branches(c.Context())
	if err != nil {
		return sourceError(c, err)
	}
	return c.JSON(fiber.Map{"data": branches})
}

// Warehouses lists the warehouses of a branch.
//
// GET /api/warehouses/:branchId
func (h *CatalogHandler) Warehouses(c *fiber.Ctx) error {
	branchID, err := strconv.ParseInt(c.Params("branchId"), 10, 64)
	if err != nil || branchID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BRANCH_ID", Message: "branchId must be a positive integer"})
	}
	warehouses, err := h.uc.Warehouses(c.Context(), branchID)
	if err != nil {
		return sourceError(c, err)
	}
	return c.JSON(fiber.Map{"branch_id": branchID, "data": warehouses})
}

// sourceError maps source API failures to a response, shared by the handlers.
func sourceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrAuthRefreshFailed) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SOURCE_AUTH", Message: "source API session could not be refreshed"})
	}
	return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SOURCE", Message: err.Error()})
}
