package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Raw operation shapes as the source API serves them. Transient: decoded,
// normalized into LedgerEntry values and discarded, never persisted.

// FlexTime decodes the timestamp formats the source mixes freely: an RFC3339
// string, a "2006-01-02 15:04:05" string, an epoch in seconds or milliseconds,
// or any of those wrapped in {"value": ...}. Unparsable input leaves the zero
// time; the normalizer drops and counts such records instead of zero-dating them.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	// Wrapped form: {"value": ...}
	if b[0] == '{' {
		var wrapped struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil || wrapped.Value == nil {
			return nil
		}
		return t.UnmarshalJSON(wrapped.Value)
	}

	if b[0] == '"' {
		s := strings.TrimSpace(string(b[1 : len(b)-1]))
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		// Epoch serialized as a string.
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = epochToTime(n)
		}
		return nil
	}

	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		t.Time = epochToTime(n)
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		t.Time = epochToTime(int64(f))
	}
	return nil
}

// epochToTime treats values above 1e11 as milliseconds, otherwise seconds.
func epochToTime(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 100_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// FlexID decodes a numeric id the source serves either as a JSON number or a
// string. Comparison downstream is numeric, never textual.
type FlexID int64

func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = FlexID(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*id = FlexID(int64(f))
	}
	return nil
}

// Int64Ptr returns the id as *int64, nil when the receiver is nil.
func (id *FlexID) Int64Ptr() *int64 {
	if id == nil {
		return nil
	}
	n := int64(*id)
	return &n
}

// Posting is a goods receipt into a warehouse.
type Posting struct {
	CreatedAt      FlexTime        `json:"posting_created_at"`
	Label          string          `json:"posting_label"`
	CreatedByName  string          `json:"created_by_name"`
	WarehouseTitle string          `json:"warehouse_title"`
	WarehouseID    *FlexID         `json:"warehouse_id"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"posting_description"`
}

// Move is a transfer between two warehouses. The source represents it once;
// normalization splits it into an outbound and an inbound leg.
type Move struct {
	CreatedAt   FlexTime        `json:"move_created_at"`
	Label       string          `json:"move_label"`
	CreatedBy   string          `json:"created_by_name"`
	SourceTitle string          `json:"source_warehouse_title"`
	TargetTitle string          `json:"target_warehouse_title"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"move_description"`
}

// Outcome is a stock write-off.
type Outcome struct {
	CreatedAt   FlexTime        `json:"outcome_created_at"`
	Label       string          `json:"outcome_label"`
	CreatedBy   string          `json:"created_by_name"`
	SourceTitle string          `json:"source_warehouse_title"`
	WarehouseID *FlexID         `json:"warehouse_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"outcome_description"`
}

// Sale is retail consumption from a warehouse.
type Sale struct {
	CreatedAt   FlexTime        `json:"sale_created_at"`
	Label       string          `json:"sale_label"`
	CreatedBy   string          `json:"created_by_name"`
	WarehouseID *FlexID         `json:"warehouse_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"sale_description"`
}

// Relation type codes of the goods-flow feed.
const (
	RelationOrder    = 0 // order, outflow
	RelationSale     = 1 // duplicated by the sales feed
	RelationOther    = 2 // informational, zero delta
	RelationPosting  = 3 // duplicated by the postings feed
	RelationWriteOff = 4 // duplicated by the outcomes feed
	RelationMove     = 5 // duplicated by the moves feed
	RelationReturn   = 7 // return, inflow
)

// FlowItem is one record of the coded goods-flow feed.
type FlowItem struct {
	ID              FlexID           `json:"id"`
	CreatedAt       FlexTime         `json:"created_at"`
	RelationType    int              `json:"relation_type"`
	Amount          decimal.Decimal  `json:"amount"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Delta           *decimal.Decimal `json:"delta"` // some feed versions ship a pre-signed delta
	RelationIDLabel string           `json:"relation_id_label"`
	RelationLabel   string           `json:"relation_label"`
	EmployeeID      *FlexID          `json:"employee_id"`
	Comment         string           `json:"comment"`
	WarehouseID     *FlexID          `json:"warehouse_id"`

	// EmployeeName is resolved from the employee directory before
	// normalization; it never comes from the feed itself.
	EmployeeName string `json:"-"`
}

// EffectiveAmount returns the unsigned quantity of the flow item: amount when
// present, quantity otherwise. Absent both means a zero-delta entry.
func (f FlowItem) EffectiveAmount() decimal.Decimal {
	if !f.Amount.IsZero() {
		return f.Amount.Abs()
	}
	return f.Quantity.Abs()
}

// OperationBatch bundles the five raw feeds for one product, already fetched.
type OperationBatch struct {
	Postings []Posting
	Moves    []Move
	Outcomes []Outcome
	Sales    []Sale
	Flow     []FlowItem
}
