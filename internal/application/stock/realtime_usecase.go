package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/domain"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

// ProductResidue is the flow-derived stock state of one product on a warehouse.
type ProductResidue struct {
	ProductID         int64
	Title             string
	Code              string
	Article           string
	UOMTitle          string
	CalculatedResidue decimal.Decimal
	LastOperationAt   *time.Time
	TotalOperations   int
}

// Result carries the per-product residues plus degradation flags.
type Result struct {
	WarehouseID int64
	Products    []ProductResidue
	Partial     bool
	Overrun     bool
}

// RealtimeUseCase computes a live residue per product on a warehouse by
// summing the product's flow feed, independent of the stored goods residue.
// Useful for spotting drift between the feed and the reported stock.
type RealtimeUseCase struct {
	source history.OperationSource
	log    *logger.Logger
}

// NewRealtimeUseCase constructs the use case.
func NewRealtimeUseCase(source history.OperationSource, log *logger.Logger) *RealtimeUseCase {
	return &RealtimeUseCase{source: source, log: log}
}

// WarehouseGoods lists the goods of a warehouse with a residue calculated by
// forward-summing each product's flow records scoped to that warehouse.
// Products are processed sequentially: the source pagination is positional
// and not safe to parallelize.
func (uc *RealtimeUseCase) WarehouseGoods(ctx context.Context, warehouseID int64) (*Result, error) {
	goods, err := uc.source.FetchWarehouseGoods(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("fetch warehouse goods: %w", err)
	}

	res := &Result{WarehouseID: warehouseID, Products: make([]ProductResidue, 0, len(goods))}

	for _, g := range goods {
		if g.ID == 0 {
			continue
		}
		flow, err := uc.source.FetchFlow(ctx, int64(g.ID))
		if err != nil {
			if errors.Is(err, domain.ErrAuthRefreshFailed) {
				return nil, fmt.Errorf("fetch flow for product %d: %w", int64(g.ID), err)
			}
			res.Partial = true
			if errors.Is(err, domain.ErrPaginationOverrun) {
				res.Overrun = true
			}
			uc.log.Warn().Err(err).
				Int64("product_id", int64(g.ID)).
				Msg("flow fetch degraded, residue computed from partial data")
		}

		res.Products = append(res.Products, residueOf(g, flow, warehouseID))
	}

	return res, nil
}

// residueOf sums the signed flow deltas of one product on one warehouse.
// Items that name a different warehouse are excluded; items without a
// warehouse id are kept, matching the feed's own scoping.
func residueOf(g entity.Good, flow []entity.FlowItem, warehouseID int64) ProductResidue {
	pr := ProductResidue{
		ProductID: int64(g.ID),
		Title:     g.Title,
		Code:      g.Code,
		Article:   g.Article,
		UOMTitle:  g.UOMTitle,
	}

	var last time.Time
	for _, item := range flow {
		if item.WarehouseID != nil && int64(*item.WarehouseID) != warehouseID {
			continue
		}
		pr.CalculatedResidue = pr.CalculatedResidue.Add(flowDelta(item))
		pr.TotalOperations++
		if item.CreatedAt.After(last) {
			last = item.CreatedAt.Time
		}
	}
	if !last.IsZero() {
		pr.LastOperationAt = &last
	}
	return pr
}

// flowDelta returns the signed quantity change of a flow item: the pre-signed
// delta when the feed ships one, otherwise amount/quantity signed by code.
func flowDelta(item entity.FlowItem) decimal.Decimal {
	if item.Delta != nil {
		return *item.Delta
	}
	amount := item.EffectiveAmount()
	switch item.RelationType {
	case entity.RelationReturn, entity.RelationPosting:
		return amount
	case entity.RelationOrder, entity.RelationSale, entity.RelationWriteOff:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}
