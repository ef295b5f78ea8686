package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/domain/entity"
)

// NormalizeResult carries the canonical entries plus per-batch counters.
// Record-level problems are absorbed here and reported in aggregate; they
// never abort the batch.
type NormalizeResult struct {
	Entries          []entity.LedgerEntry
	DroppedRecords   int // records without a parseable timestamp
	SkippedFlowItems int // flow codes duplicated by dedicated feeds, or unknown
}

// Normalizer converts the five raw feed shapes into canonical ledger entries.
// Transfer records are split into directional legs here, before scope
// filtering, so a warehouse-scoped build only ever sees the legs that touch it.
type Normalizer struct {
	matcher NameMatcher
}

// NewNormalizer builds a normalizer with the legacy substring name matcher.
func NewNormalizer() *Normalizer {
	return &Normalizer{matcher: ContainsMatcher{}}
}

// NewNormalizerWithMatcher builds a normalizer with a custom name matcher.
func NewNormalizerWithMatcher(m NameMatcher) *Normalizer {
	return &Normalizer{matcher: m}
}

// Normalize maps every record of the batch to its canonical form. The scope
// is only consulted for transfer legs: when a warehouse name is in scope, a
// leg is kept only if its own side of the move matches that name. Every other
// record is normalized unconditionally; the scope filter runs afterwards.
func (n *Normalizer) Normalize(batch entity.OperationBatch, scope Scope) NormalizeResult {
	var res NormalizeResult

	for _, p := range batch.Postings {
		if p.CreatedAt.IsZero() {
			res.DroppedRecords++
			continue
		}
		res.Entries = append(res.Entries, newEntry(entry{
			category:    entity.CategoryPosting,
			timestamp:   p.CreatedAt.Time,
			label:       p.Label,
			actor:       p.CreatedByName,
			warehouse:   CleanWarehouseTitle(p.WarehouseTitle),
			warehouseID: p.WarehouseID.Int64Ptr(),
			amount:      p.Amount,
			description: p.Description,
		}))
	}

	for _, m := range batch.Moves {
		if m.CreatedAt.IsZero() {
			res.DroppedRecords++
			continue
		}
		for _, leg := range SplitTransfer(m) {
			if n.legInScope(leg, scope) {
				res.Entries = append(res.Entries, leg)
			}
		}
	}

	for _, o := range batch.Outcomes {
		if o.CreatedAt.IsZero() {
			res.DroppedRecords++
			continue
		}
		source := CleanWarehouseTitle(o.SourceTitle)
		res.Entries = append(res.Entries, newEntry(entry{
			category:    entity.CategoryWriteOff,
			timestamp:   o.CreatedAt.Time,
			label:       o.Label,
			actor:       o.CreatedBy,
			warehouse:   source,
			counterpart: source,
			warehouseID: o.WarehouseID.Int64Ptr(),
			amount:      o.Amount,
			description: o.Description,
		}))
	}

	for _, s := range batch.Sales {
		if s.CreatedAt.IsZero() {
			res.DroppedRecords++
			continue
		}
		res.Entries = append(res.Entries, newEntry(entry{
			category:    entity.CategorySale,
			timestamp:   s.CreatedAt.Time,
			label:       s.Label,
			actor:       s.CreatedBy,
			warehouseID: s.WarehouseID.Int64Ptr(),
			amount:      s.Amount,
			description: s.Description,
		}))
	}

	for _, f := range batch.Flow {
		cat, keep := flowCategory(f.RelationType)
		if !keep {
			res.SkippedFlowItems++
			continue
		}
		if f.CreatedAt.IsZero() {
			res.DroppedRecords++
			continue
		}
		res.Entries = append(res.Entries, newEntry(entry{
			category:    cat,
			timestamp:   f.CreatedAt.Time,
			label:       flowLabel(f),
			actor:       flowActor(f),
			amount:      f.EffectiveAmount(),
			description: flowDescription(f),
		}))
	}

	return res
}

// SplitTransfer turns one move record into its two directional legs: an
// outbound leg whose counterpart is the destination and an inbound leg whose
// counterpart is the source. Warehouse titles are cleaned of path prefixes.
func SplitTransfer(m entity.Move) [2]entity.LedgerEntry {
	source := CleanWarehouseTitle(m.SourceTitle)
	target := CleanWarehouseTitle(m.TargetTitle)

	out := newEntry(entry{
		category:    entity.CategoryTransferOut,
		timestamp:   m.CreatedAt.Time,
		label:       m.Label,
		actor:       m.CreatedBy,
		warehouse:   source,
		counterpart: target,
		amount:      m.Amount,
		description: m.Description,
	})
	in := newEntry(entry{
		category:    entity.CategoryTransferIn,
		timestamp:   m.CreatedAt.Time,
		label:       m.Label,
		actor:       m.CreatedBy,
		warehouse:   target,
		counterpart: source,
		amount:      m.Amount,
		description: m.Description,
	})
	return [2]entity.LedgerEntry{out, in}
}

// legInScope keeps a transfer leg when no name is in scope, or when the leg's
// own warehouse matches the scoped name.
func (n *Normalizer) legInScope(leg entity.LedgerEntry, scope Scope) bool {
	if scope.WarehouseName == "" {
		return true
	}
	return n.matcher.Match(leg.Warehouse, scope.WarehouseName)
}

// CleanWarehouseTitle strips a path prefix from a warehouse display name:
// "Region > Warehouse" becomes "Warehouse".
func CleanWarehouseTitle(title string) string {
	if idx := strings.LastIndex(title, " > "); idx != -1 {
		return strings.TrimSpace(title[idx+3:])
	}
	return strings.TrimSpace(title)
}

// entry is the normalizer-internal bag of canonical fields; newEntry applies
// the category-determined sign.
type entry struct {
	category    entity.Category
	timestamp   time.Time
	label       string
	actor       string
	warehouse   string
	counterpart string
	warehouseID *int64
	amount      decimal.Decimal
	description string
}

func newEntry(e entry) entity.LedgerEntry {
	amount := e.amount.Abs()
	var delta decimal.Decimal
	switch e.category.Sign() {
	case 1:
		delta = amount
	case -1:
		delta = amount.Neg()
	default:
		delta = decimal.Zero
	}
	return entity.LedgerEntry{
		Timestamp:   e.timestamp,
		Category:    e.category,
		Label:       e.label,
		Actor:       e.actor,
		Warehouse:   e.warehouse,
		Counterpart: e.counterpart,
		WarehouseID: e.warehouseID,
		Amount:      amount,
		Delta:       delta,
		Description: e.description,
	}
}

// flowCategory maps a relation-type code to a category. Codes that duplicate
// the dedicated feeds (sale, posting, write-off, move) are skipped to avoid
// double counting, and so are unknown codes.
func flowCategory(relationType int) (entity.Category, bool) {
	switch relationType {
	case entity.RelationOrder:
		return entity.CategoryOrder, true
	case entity.RelationReturn:
		return entity.CategoryReturn, true
	case entity.RelationOther:
		return entity.CategoryOther, true
	default:
		return "", false
	}
}

func flowLabel(f entity.FlowItem) string {
	if f.RelationIDLabel != "" {
		return f.RelationIDLabel
	}
	if f.RelationLabel != "" {
		return f.RelationLabel
	}
	if f.ID != 0 {
		return fmt.Sprintf("%d", int64(f.ID))
	}
	return "-"
}

func flowActor(f entity.FlowItem) string {
	if f.EmployeeName != "" {
		return f.EmployeeName
	}
	if f.EmployeeID != nil {
		return fmt.Sprintf("%d", int64(*f.EmployeeID))
	}
	return "-"
}

func flowDescription(f entity.FlowItem) string {
	if f.Comment != "" {
		return f.Comment
	}
	return f.RelationLabel
}
