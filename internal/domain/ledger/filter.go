package ledger

import "github.com/remflow/stockhistory-api/internal/domain/entity"

// Filter selects the entries relevant to a warehouse scope. The rule order is
// a policy carried over from the observed upstream data shape; replacements
// must preserve the same precedence.
type Filter struct {
	matcher NameMatcher
}

// NewFilter builds a filter with the legacy substring name matcher.
func NewFilter() *Filter {
	return &Filter{matcher: ContainsMatcher{}}
}

// NewFilterWithMatcher builds a filter with a custom name matcher.
func NewFilterWithMatcher(m NameMatcher) *Filter {
	return &Filter{matcher: m}
}

// ByWarehouse returns the subset of entries in scope. An empty scope returns
// the input unfiltered (whole-product view). Per entry, first match wins:
//
//  1. Transfer legs are kept as-is; they were already narrowed by direction
//     at split time.
//  2. Entries carrying an explicit warehouse id are kept iff it equals the
//     requested id (numeric comparison).
//  3. Coded-flow entries are kept unconditionally; their scoping was resolved
//     by the source feed.
//  4. Everything else is kept iff its counterpart text matches the requested
//     warehouse display name.
func (f *Filter) ByWarehouse(entries []entity.LedgerEntry, scope Scope) []entity.LedgerEntry {
	if scope.IsZero() {
		return entries
	}

	kept := make([]entity.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if f.inScope(e, scope) {
			kept = append(kept, e)
		}
	}
	return kept
}

func (f *Filter) inScope(e entity.LedgerEntry, scope Scope) bool {
	if e.Category.IsTransferLeg() {
		return true
	}
	if e.WarehouseID != nil && scope.WarehouseID != nil {
		return *e.WarehouseID == *scope.WarehouseID
	}
	if e.Category.IsFlow() {
		return true
	}
	return f.matcher.Match(e.Counterpart, scope.WarehouseName)
}
