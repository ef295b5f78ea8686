package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/domain"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/internal/domain/ledger"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

// Input parameters for a product history build.
type Input struct {
	ProductID     int64
	WarehouseID   *int64
	WarehouseName string
	// CurrentBalance overrides the authoritative balance. When nil and a
	// warehouse is scoped, the balance is read from the warehouse goods list.
	CurrentBalance *decimal.Decimal
}

// Result is the annotated outcome of a history build. Fetch- and ledger-level
// problems are carried as fields, not errors, per the partial-answer policy.
type Result struct {
	ProductID        int64
	Scope            ledger.Scope
	Ledger           entity.Ledger
	DroppedRecords   int
	SkippedFlowItems int
	Partial          bool // at least one feed terminated early or failed
	Overrun          bool // a feed hit the pagination safety ceiling
}

// UseCase builds the reconciled stock history for a product, optionally scoped
// to one warehouse: fetch the five feeds, normalize, filter, build, reconcile.
type UseCase struct {
	source    OperationSource
	directory EmployeeDirectory
	norm      *ledger.Normalizer
	filter    *ledger.Filter
	log       *logger.Logger
}

// NewUseCase constructs the use case with the legacy name-matching policy.
func NewUseCase(source OperationSource, directory EmployeeDirectory, log *logger.Logger) *UseCase {
	return &UseCase{
		source:    source,
		directory: directory,
		norm:      ledger.NewNormalizer(),
		filter:    ledger.NewFilter(),
		log:       log,
	}
}

// ProductHistory fetches and reconciles the movement history of a product.
// Only a failed session refresh aborts the build; every other fetch problem
// degrades to a flagged partial result.
func (uc *UseCase) ProductHistory(ctx context.Context, in Input) (*Result, error) {
	if in.ProductID == 0 {
		return nil, domain.ErrInvalidInput
	}

	res := &Result{
		ProductID: in.ProductID,
		Scope: ledger.Scope{
			WarehouseID:   in.WarehouseID,
			WarehouseName: ledger.CleanWarehouseTitle(in.WarehouseName),
		},
	}

	batch, err := uc.fetchBatch(ctx, in.ProductID, res)
	if err != nil {
		return nil, err
	}
	uc.resolveActors(ctx, batch.Flow)

	current, err := uc.currentBalance(ctx, in, res)
	if err != nil {
		return nil, err
	}

	normalized := uc.norm.Normalize(*batch, res.Scope)
	res.DroppedRecords = normalized.DroppedRecords
	res.SkippedFlowItems = normalized.SkippedFlowItems

	scoped := uc.filter.ByWarehouse(normalized.Entries, res.Scope)
	res.Ledger = ledger.Build(scoped, current)

	if !res.Ledger.ReconciliationOK {
		uc.log.Warn().
			Int64("product_id", in.ProductID).
			Str("reconciliation_delta", res.Ledger.ReconciliationDelta.String()).
			Msg("ledger does not close to the authoritative balance")
	}
	if res.DroppedRecords > 0 {
		uc.log.Warn().
			Int64("product_id", in.ProductID).
			Int("dropped", res.DroppedRecords).
			Msg("records without a parseable timestamp were dropped")
	}

	return res, nil
}

// fetchBatch pulls the five feeds sequentially. The source pagination cursor
// is positional, so feeds are never fetched concurrently.
func (uc *UseCase) fetchBatch(ctx context.Context, productID int64, res *Result) (*entity.OperationBatch, error) {
	batch := &entity.OperationBatch{}

	fetches := []struct {
		name string
		run  func() error
	}{
		{"postings", func() (err error) { batch.Postings, err = uc.source.FetchPostings(ctx, productID); return }},
		{"moves", func() (err error) { batch.Moves, err = uc.source.FetchMoves(ctx, productID); return }},
		{"outcomes", func() (err error) { batch.Outcomes, err = uc.source.FetchOutcomes(ctx, productID); return }},
		{"sales", func() (err error) { batch.Sales, err = uc.source.FetchSales(ctx, productID); return }},
		{"flow", func() (err error) { batch.Flow, err = uc.source.FetchFlow(ctx, productID); return }},
	}

	for _, f := range fetches {
		if err := f.run(); err != nil {
			if errors.Is(err, domain.ErrAuthRefreshFailed) {
				return nil, fmt.Errorf("fetch %s: %w", f.name, err)
			}
			res.Partial = true
			if errors.Is(err, domain.ErrPaginationOverrun) {
				res.Overrun = true
			}
			uc.log.Warn().Err(err).
				Int64("product_id", productID).
				Str("feed", f.name).
				Msg("feed fetch degraded to partial result")
		}
	}
	return batch, nil
}

// resolveActors fills employee display names on flow items from the directory.
func (uc *UseCase) resolveActors(ctx context.Context, flow []entity.FlowItem) {
	if uc.directory == nil {
		return
	}
	for i := range flow {
		if flow[i].EmployeeID == nil {
			continue
		}
		if name, ok := uc.directory.EmployeeName(ctx, int64(*flow[i].EmployeeID)); ok {
			flow[i].EmployeeName = name
		}
	}
}

// currentBalance returns the caller-supplied balance, or reads the product's
// residue from the scoped warehouse goods list. Without either, the build
// proceeds from zero and the reconciliation flag reflects the mismatch.
func (uc *UseCase) currentBalance(ctx context.Context, in Input, res *Result) (decimal.Decimal, error) {
	if in.CurrentBalance != nil {
		return *in.CurrentBalance, nil
	}
	if in.WarehouseID == nil {
		return decimal.Zero, nil
	}

	goods, err := uc.source.FetchWarehouseGoods(ctx, *in.WarehouseID)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRefreshFailed) {
			return decimal.Zero, fmt.Errorf("fetch warehouse goods: %w", err)
		}
		res.Partial = true
		uc.log.Warn().Err(err).Int64("warehouse_id", *in.WarehouseID).
			Msg("warehouse goods fetch degraded, current balance defaults to zero")
	}
	for _, g := range goods {
		if int64(g.ID) == in.ProductID {
			return g.Residue, nil
		}
	}
	return decimal.Zero, nil
}
