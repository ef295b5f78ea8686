package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/application/stock"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
)

// LedgerEntryDTO one movement line of the reconciled history, newest first.
type LedgerEntryDTO struct {
	Date           time.Time       `json:"date"`
	Type           string          `json:"type"`
	Label          string          `json:"label"`
	Actor          string          `json:"actor"`
	Warehouse      string          `json:"warehouse,omitempty"`
	Counterpart    string          `json:"counterpart,omitempty"`
	WarehouseID    *int64          `json:"warehouse_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Delta          decimal.Decimal `json:"delta"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Description    string          `json:"description,omitempty"`
}

// ProductHistoryResponse the reconciled, balance-annotated product history.
type ProductHistoryResponse struct {
	ProductID           int64            `json:"product_id"`
	WarehouseID         *int64           `json:"warehouse_id,omitempty"`
	WarehouseName       string           `json:"warehouse_name,omitempty"`
	OpeningBalance      decimal.Decimal  `json:"opening_balance"`
	CurrentBalance      decimal.Decimal  `json:"current_balance"`
	ReconciliationOK    bool             `json:"reconciliation_ok"`
	ReconciliationDelta decimal.Decimal  `json:"reconciliation_delta"`
	DroppedRecords      int              `json:"dropped_records"`
	SkippedFlowItems    int              `json:"skipped_flow_items"`
	Partial             bool             `json:"partial"`
	Overrun             bool             `json:"overrun"`
	TotalOperations     int              `json:"total_operations"`
	Entries             []LedgerEntryDTO `json:"entries"`
}

// FromHistoryResult maps a use-case result to the response shape.
func FromHistoryResult(res *history.Result) ProductHistoryResponse {
	entries := make([]LedgerEntryDTO, 0, len(res.Ledger.Entries))
	for _, e := range res.Ledger.Entries {
		entries = append(entries, fromEntry(e))
	}
	return ProductHistoryResponse{
		ProductID:           res.ProductID,
		WarehouseID:         res.Scope.WarehouseID,
		WarehouseName:       res.Scope.WarehouseName,
		OpeningBalance:      res.Ledger.OpeningBalance,
		CurrentBalance:      res.Ledger.CurrentBalance,
		ReconciliationOK:    res.Ledger.ReconciliationOK,
		ReconciliationDelta: res.Ledger.ReconciliationDelta,
		DroppedRecords:      res.DroppedRecords,
		SkippedFlowItems:    res.SkippedFlowItems,
		Partial:             res.Partial,
		Overrun:             res.Overrun,
		TotalOperations:     len(res.Ledger.Entries),
		Entries:             entries,
	}
}

func fromEntry(e entity.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		Date:           e.Timestamp,
		Type:           string(e.Category),
		Label:          e.Label,
		Actor:          e.Actor,
		Warehouse:      e.Warehouse,
		Counterpart:    e.Counterpart,
		WarehouseID:    e.WarehouseID,
		Amount:         e.Amount,
		Delta:          e.Delta,
		RunningBalance: e.RunningBalance,
		Description:    e.Description,
	}
}

// ProductResidueDTO flow-derived stock state of one product.
type ProductResidueDTO struct {
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Code              string          `json:"code,omitempty"`
	Article           string          `json:"article,omitempty"`
	UOMTitle          string          `json:"uom_title,omitempty"`
	CalculatedResidue decimal.Decimal `json:"calculated_residue"`
	LastOperationAt   *time.Time      `json:"last_update_from_flow,omitempty"`
	TotalOperations   int             `json:"total_operations"`
}

// RealtimeGoodsResponse realtime goods list for a warehouse.
type RealtimeGoodsResponse struct {
	WarehouseID   int64               `json:"warehouse_id"`
	TotalProducts int                 `json:"total_products"`
	Partial       bool                `json:"partial"`
	Overrun       bool                `json:"overrun"`
	Products      []ProductResidueDTO `json:"data"`
}

// FromStockResult maps a realtime stock result to the response shape.
func FromStockResult(res *stock.Result) RealtimeGoodsResponse {
	products := make([]ProductResidueDTO, 0, len(res.Products))
	for _, p := range res.Products {
		products = append(products, ProductResidueDTO{
			ProductID:         p.ProductID,
			Title:             p.Title,
			Code:              p.Code,
			Article:           p.Article,
			UOMTitle:          p.UOMTitle,
			CalculatedResidue: p.CalculatedResidue,
			LastOperationAt:   p.LastOperationAt,
			TotalOperations:   p.TotalOperations,
		})
	}
	return RealtimeGoodsResponse{
		WarehouseID:   res.WarehouseID,
		TotalProducts: len(products),
		Partial:       res.Partial,
		Overrun:       res.Overrun,
		Products:      products,
	}
}
