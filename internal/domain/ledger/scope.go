package ledger

import "strings"

// Scope narrows a ledger build to one warehouse, by numeric id and/or display
// name. The zero Scope means the whole-product, cross-warehouse view.
type Scope struct {
	WarehouseID   *int64
	WarehouseName string
}

// IsZero reports whether no warehouse scope was requested.
func (s Scope) IsZero() bool {
	return s.WarehouseID == nil && s.WarehouseName == ""
}

// NameMatcher decides whether a free-text warehouse reference matches a
// requested warehouse display name. The production matcher is a case-sensitive
// substring test, faithfully preserving legacy attribution: a warehouse named
// "A" also matches "A2". Kept behind this interface so it can be replaced with
// exact id resolution once the upstream data carries ids consistently.
type NameMatcher interface {
	Match(text, warehouseName string) bool
}

// ContainsMatcher is the legacy case-sensitive substring matcher.
type ContainsMatcher struct{}

// Match reports whether text contains warehouseName. An empty name never matches.
func (ContainsMatcher) Match(text, warehouseName string) bool {
	return warehouseName != "" && strings.Contains(text, warehouseName)
}
