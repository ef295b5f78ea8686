package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/remflow/stockhistory-api/internal/domain/entity"
)

// reconciliationTolerance is the absolute closure tolerance. Quantities may be
// fractional (weight and volume units), so the final balance is compared to
// the authoritative one within 0.01 rather than exactly.
var reconciliationTolerance = decimal.RequireFromString("0.01")

// Build constructs the reconciliation artifact from a filtered entry set and
// the authoritative current balance.
//
// The opening balance is derived backward: currentBalance minus the sum of all
// deltas. Entries are then walked oldest-first, each receiving the running
// balance after its delta. The walk therefore closes on currentBalance by
// construction; a residual difference beyond the tolerance is surfaced as
// ReconciliationOK=false with the delta attached, never as an error — the
// ledger is still returned for inspection.
//
// Entries are presented newest-first; the reversal is a final presentation
// step, separate from the balance walk. The input slice is not mutated.
func Build(entries []entity.LedgerEntry, currentBalance decimal.Decimal) entity.Ledger {
	totalDelta := decimal.Zero
	for _, e := range entries {
		totalDelta = totalDelta.Add(e.Delta)
	}
	opening := currentBalance.Sub(totalDelta)

	sorted := make([]entity.LedgerEntry, len(entries))
	copy(sorted, entries)
	// Stable: same-instant operations keep their input relative order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	running := opening
	for i := range sorted {
		running = running.Add(sorted[i].Delta)
		sorted[i].RunningBalance = running
	}

	reconDelta := running.Sub(currentBalance)

	// Newest first for display.
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	return entity.Ledger{
		Entries:             sorted,
		OpeningBalance:      opening,
		CurrentBalance:      currentBalance,
		ReconciliationOK:    reconDelta.Abs().LessThanOrEqual(reconciliationTolerance),
		ReconciliationDelta: reconDelta,
	}
}
