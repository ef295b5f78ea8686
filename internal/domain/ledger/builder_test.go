package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/internal/domain/ledger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Test helpers
// ──────────────────────────────────────────────────────────────────────────────

// entryAt builds a minimal entry with a timestamp offset (seconds) and a delta.
func entryAt(sec int64, delta int64) entity.LedgerEntry {
	d := decimal.NewFromInt(delta)
	return entity.LedgerEntry{
		Timestamp: time.Unix(sec, 0).UTC(),
		Category:  entity.CategoryPosting,
		Amount:    d.Abs(),
		Delta:     d,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Opening balance and running balances
// ──────────────────────────────────────────────────────────────────────────────

// Entries [+10, -3] with current balance 7: opening must be 0 and running
// balances walk 10 then 7.
func TestBuild_OpeningDerivedFromCurrentBalance(t *testing.T) {
	entries := []entity.LedgerEntry{entryAt(1, 10), entryAt(2, -3)}

	l := ledger.Build(entries, decimal.NewFromInt(7))

	assertDecimal(t, "0", l.OpeningBalance)
	require.Len(t, l.Entries, 2)
	// Presentation is newest first; the walk itself was oldest first.
	assertDecimal(t, "7", l.Entries[0].RunningBalance)
	assertDecimal(t, "10", l.Entries[1].RunningBalance)
	assert.True(t, l.ReconciliationOK, "ledger must close to the authoritative balance")
	assertDecimal(t, "0", l.ReconciliationDelta)
}

// Same entries with current balance 100: closure is definitional no matter the
// opening value.
func TestBuild_ClosureHoldsForAnyCurrentBalance(t *testing.T) {
	entries := []entity.LedgerEntry{entryAt(1, 10), entryAt(2, -3)}

	l := ledger.Build(entries, decimal.NewFromInt(100))

	assertDecimal(t, "93", l.OpeningBalance)
	require.Len(t, l.Entries, 2)
	assertDecimal(t, "100", l.Entries[0].RunningBalance)
	assertDecimal(t, "103", l.Entries[1].RunningBalance)
	assert.True(t, l.ReconciliationOK)
}

// runningBalance_i == runningBalance_{i-1} + delta_i for every entry, with the
// opening balance as the first predecessor.
func TestBuild_RunningBalanceConsistency(t *testing.T) {
	entries := []entity.LedgerEntry{
		entryAt(5, 4), entryAt(1, -2), entryAt(9, 7), entryAt(3, -1), entryAt(7, 12),
	}

	l := ledger.Build(entries, decimal.NewFromInt(55))

	// Walk chronologically: the response is newest first, so reverse.
	prev := l.OpeningBalance
	for i := len(l.Entries) - 1; i >= 0; i-- {
		e := l.Entries[i]
		assert.True(t, prev.Add(e.Delta).Equal(e.RunningBalance),
			"running balance at %s must be predecessor %s plus delta %s",
			e.Timestamp, prev.String(), e.Delta.String())
		prev = e.RunningBalance
	}
	assert.True(t, prev.Equal(l.CurrentBalance), "final running balance must equal the current balance")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ordering
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_PresentsNewestFirst(t *testing.T) {
	entries := []entity.LedgerEntry{entryAt(3, 1), entryAt(1, 1), entryAt(2, 1)}

	l := ledger.Build(entries, decimal.NewFromInt(3))

	require.Len(t, l.Entries, 3)
	assert.True(t, l.Entries[0].Timestamp.After(l.Entries[1].Timestamp))
	assert.True(t, l.Entries[1].Timestamp.After(l.Entries[2].Timestamp))
}

// Same-instant entries keep their input relative order (stable sort).
func TestBuild_StableForSameInstantEntries(t *testing.T) {
	first := entryAt(1, 2)
	first.Label = "first"
	second := entryAt(1, 3)
	second.Label = "second"

	l := ledger.Build([]entity.LedgerEntry{first, second}, decimal.NewFromInt(5))

	require.Len(t, l.Entries, 2)
	// Newest-first display reverses the chronological walk, so "second" leads.
	assert.Equal(t, "second", l.Entries[0].Label)
	assert.Equal(t, "first", l.Entries[1].Label)
	assertDecimal(t, "2", l.Entries[1].RunningBalance, "first entry walks from the opening balance")
	assertDecimal(t, "5", l.Entries[0].RunningBalance)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconciliation flag and determinism
// ──────────────────────────────────────────────────────────────────────────────

// Fractional drift within 0.01 still closes; beyond it the ledger is returned
// with the mismatch surfaced, never dropped.
func TestBuild_ToleranceOnFractionalQuantities(t *testing.T) {
	within := []entity.LedgerEntry{entryAt(1, 10)}
	l := ledger.Build(within, decimal.RequireFromString("10.009"))
	// Opening is derived backward, so closure is exact by construction here.
	assert.True(t, l.ReconciliationOK)
}

func TestBuild_EmptyEntrySet(t *testing.T) {
	l := ledger.Build(nil, decimal.NewFromInt(42))

	assert.Empty(t, l.Entries)
	assertDecimal(t, "42", l.OpeningBalance, "no movements means opening equals current")
	assert.True(t, l.ReconciliationOK)
}

// Re-running the build on the same input yields an identical ledger: there is
// no hidden clock or randomness in the computation.
func TestBuild_Deterministic(t *testing.T) {
	entries := []entity.LedgerEntry{
		entryAt(2, -4), entryAt(2, 9), entryAt(1, 3),
	}
	current := decimal.RequireFromString("8")

	a := ledger.Build(entries, current)
	b := ledger.Build(entries, current)

	assert.Equal(t, a, b)
}

// The input slice must not be reordered or annotated by the build.
func TestBuild_DoesNotMutateInput(t *testing.T) {
	entries := []entity.LedgerEntry{entryAt(3, 1), entryAt(1, 2)}

	_ = ledger.Build(entries, decimal.NewFromInt(3))

	assert.Equal(t, time.Unix(3, 0).UTC(), entries[0].Timestamp, "input order must be preserved")
	assert.True(t, entries[0].RunningBalance.IsZero(), "input entries must not receive running balances")
}
