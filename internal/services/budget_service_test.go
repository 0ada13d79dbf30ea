package services

import (
	"context"
	"testing"
	"time"

	"bollette/internal/cache"
	"bollette/internal/core"
	"bollette/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foodBudget() core.Budget {
	return core.Budget{
		UserID:     "u1",
		CategoryID: "food",
		Amount:     core.Money{Cents: 10000},
		Cadence:    core.BudgetMonthly,
		StartDate:  core.NewDate(2024, 1, 31),
	}
}

func addExpense(t *testing.T, store *memory.Store, date core.Date, cents int64) {
	t.Helper()
	_, err := store.AddExpense(context.Background(), core.Expense{
		UserID: "u1", CategoryID: "food", Date: date, Amount: core.Money{Cents: cents},
	})
	require.NoError(t, err)
}

func TestBudgetSnapshot_Warning(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewBudgetService(store, store, nil)

	addExpense(t, store, core.NewDate(2024, 2, 28), 500) // previous period
	addExpense(t, store, core.NewDate(2024, 2, 29), 4000)
	addExpense(t, store, core.NewDate(2024, 3, 30), 5000)
	addExpense(t, store, core.NewDate(2024, 3, 31), 700) // next period

	snap, err := svc.Snapshot(ctx, foodBudget(), day(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", snap.Period.Start.String())
	assert.Equal(t, "2024-03-31", snap.Period.End.String())
	assert.Equal(t, int64(9000), snap.ActualSpent.Cents)
	assert.Equal(t, 90, snap.PercentUsed)
	assert.Equal(t, core.Warning, snap.Status)
	assert.Equal(t, int64(1000), snap.Remaining.Cents)
}

func TestBudgetSnapshot_EndDateCutsPeriod(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewBudgetService(store, store, nil)

	b := foodBudget()
	b.EndDate = core.NewDate(2024, 3, 15)
	addExpense(t, store, core.NewDate(2024, 3, 14), 3000)
	addExpense(t, store, core.NewDate(2024, 3, 15), 9000)

	snap, err := svc.Snapshot(ctx, b, day(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", snap.Period.End.String())
	assert.Equal(t, int64(3000), snap.ActualSpent.Cents)
	assert.Equal(t, core.OnTrack, snap.Status)
}

func TestBudgetSnapshot_CachedUntilExpenseRecorded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	spend := cache.NewLRUCache[core.Money](16, time.Hour)
	svc := NewBudgetService(store, store, spend)
	now := day(2024, 3, 10)

	addExpense(t, store, core.NewDate(2024, 3, 1), 6000)
	snap, err := svc.Snapshot(ctx, foodBudget(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), snap.ActualSpent.Cents)
	assert.Equal(t, 1, spend.Size())

	// written behind the service's back: the cached sum is still served
	addExpense(t, store, core.NewDate(2024, 3, 2), 1000)
	snap, err = svc.Snapshot(ctx, foodBudget(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), snap.ActualSpent.Cents)

	_, err = svc.RecordExpense(ctx, store, core.Expense{
		UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 3, 3), Amount: core.Money{Cents: 3500},
	})
	require.NoError(t, err)
	snap, err = svc.Snapshot(ctx, foodBudget(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(10500), snap.ActualSpent.Cents)
	assert.Equal(t, core.OverBudget, snap.Status)
	assert.Equal(t, int64(-500), snap.Remaining.Cents)
}

func TestRecordExpense_Validates(t *testing.T) {
	store := memory.NewStore()
	svc := NewBudgetService(store, store, nil)
	_, err := svc.RecordExpense(context.Background(), store, core.Expense{
		UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 3, 3),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestBudgetSnapshots_SkipsBrokenBudget(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewBudgetService(store, store, nil)

	_, err := store.SaveBudget(ctx, foodBudget())
	require.NoError(t, err)
	broken := foodBudget()
	broken.Cadence = "fortnightly"
	_, err = store.SaveBudget(ctx, broken)
	require.NoError(t, err)

	snaps, err := svc.Snapshots(ctx, "u1", day(2024, 3, 10))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, core.BudgetMonthly, snaps[0].Budget.Cadence)
}
