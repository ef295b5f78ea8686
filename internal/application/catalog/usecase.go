package catalog

import (
	"context"
	"fmt"

	"github.com/remflow/stockhistory-api/internal/domain/entity"
)

// Source lists branches and warehouses from the source API.
type Source interface {
	FetchBranches(ctx context.Context) ([]entity.Branch, error)
	FetchWarehouses(ctx context.Context, branchID int64) ([]entity.Warehouse, error)
}

// UseCase exposes the location catalog of the source account.
type UseCase struct {
	source Source
}

// NewUseCase constructs the use case.
func NewUseCase(source Source) *UseCase {
	return &UseCase{source: source}
}

// Branches lists the account's branches.
func (uc *UseCase) Branches(ctx context.Context) ([]entity.Branch, error) {
	branches, err := uc.source.FetchBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch branches: %w", err)
	}
	return branches, nil
}

// Warehouses lists the warehouses of a branch.
func (uc *UseCase) Warehouses(ctx context.Context, branchID int64) ([]entity.Warehouse, error) {
	warehouses, err := uc.source.FetchWarehouses(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("fetch warehouses for branch %d: %w", branchID, err)
	}
	return warehouses, nil
}
