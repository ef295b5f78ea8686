package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a ledger entry. The category alone determines the sign
// of the entry delta; callers never sign quantities ad hoc.
type Category string

const (
	CategoryPosting     Category = "posting"  // goods received from a supplier
	CategoryTransferOut Category = "move_out" // outbound leg of a warehouse transfer
	CategoryTransferIn  Category = "move_in"  // inbound leg of a warehouse transfer
	CategoryWriteOff    Category = "outcome"  // written off stock
	CategorySale        Category = "sale"     // retail consumption
	CategoryOrder       Category = "order"    // reserved for an order (coded flow)
	CategoryReturn      Category = "return"   // returned by a customer (coded flow)
	CategoryOther       Category = "other"    // informational flow entry, zero delta
)

// Sign returns the delta sign the category dictates: +1, -1 or 0.
func (c Category) Sign() int {
	switch c {
	case CategoryPosting, CategoryTransferIn, CategoryReturn:
		return 1
	case CategoryTransferOut, CategoryWriteOff, CategorySale, CategoryOrder:
		return -1
	default:
		return 0
	}
}

// IsTransferLeg reports whether the category is one half of a two-warehouse move.
func (c Category) IsTransferLeg() bool {
	return c == CategoryTransferOut || c == CategoryTransferIn
}

// IsFlow reports whether the category came from the coded goods-flow feed.
// Flow entries carry no warehouse id; their scoping is resolved by the source.
func (c Category) IsFlow() bool {
	return c == CategoryOrder || c == CategoryReturn || c == CategoryOther
}

// LedgerEntry is the canonical, normalized form of one warehouse movement.
type LedgerEntry struct {
	Timestamp      time.Time
	Category       Category
	Label          string          // document label, e.g. posting or move number
	Actor          string          // who created the operation
	Warehouse      string          // display text of the warehouse this entry pertains to
	Counterpart    string          // counterpart warehouse display text, if any
	WarehouseID    *int64          // explicit warehouse id when the source supplies one
	Amount         decimal.Decimal // unsigned quantity
	Delta          decimal.Decimal // signed quantity change, Sign(Category) * Amount
	RunningBalance decimal.Decimal // filled by the ledger builder
	Description    string
}

// Ledger is the reconciliation artifact: ordered entries with running
// balances, the derived opening balance and the closure check against the
// authoritative current balance. Built fresh per request, never mutated after.
type Ledger struct {
	Entries             []LedgerEntry // newest first (presentation order)
	OpeningBalance      decimal.Decimal
	CurrentBalance      decimal.Decimal
	ReconciliationOK    bool
	ReconciliationDelta decimal.Decimal // final running balance minus current balance
}
