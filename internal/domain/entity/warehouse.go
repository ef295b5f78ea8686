package entity

import "github.com/shopspring/decimal"

// Branch is a company location that owns warehouses.
type Branch struct {
	ID    FlexID `json:"id"`
	Title string `json:"title"`
}

// Warehouse as listed by the source API.
type Warehouse struct {
	ID       FlexID `json:"id"`
	Title    string `json:"title"`
	BranchID FlexID `json:"branch_id"`
}

// Good is one product position on a warehouse goods list. Residue is the
// quantity the source currently reports; it serves as the authoritative
// current balance when the caller does not supply one.
type Good struct {
	ID       FlexID          `json:"id"`
	Title    string          `json:"title"`
	Code     string          `json:"code"`
	Article  string          `json:"article"`
	UOMTitle string          `json:"uom_title"`
	Residue  decimal.Decimal `json:"residue"`
}
