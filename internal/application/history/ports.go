package history

import (
	"context"

	"github.com/remflow/stockhistory-api/internal/domain/entity"
)

// OperationSource fetches the raw operation feeds from the source API. The
// core never re-fetches: each method returns fully materialized slices.
//
// Implementations follow the partial-result policy: on a non-fatal fetch
// problem they return whatever was accumulated alongside the error, so the
// caller can render a flagged partial answer instead of a blank failure.
type OperationSource interface {
	FetchPostings(ctx context.Context, productID int64) ([]entity.Posting, error)
	FetchMoves(ctx context.Context, productID int64) ([]entity.Move, error)
	FetchOutcomes(ctx context.Context, productID int64) ([]entity.Outcome, error)
	FetchSales(ctx context.Context, productID int64) ([]entity.Sale, error)
	FetchFlow(ctx context.Context, productID int64) ([]entity.FlowItem, error)
	FetchWarehouseGoods(ctx context.Context, warehouseID int64) ([]entity.Good, error)
}

// EmployeeDirectory resolves employee ids to display names. Best effort: a
// miss returns ok=false and the caller falls back to the raw id.
type EmployeeDirectory interface {
	EmployeeName(ctx context.Context, id int64) (string, bool)
}
