package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bollette/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "bollette.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rentObligation() core.Obligation {
	return core.Obligation{
		UserID: "u1",
		Name:   "Affitto",
		Amount: core.Money{Cents: 75000},
		Rule: core.RecurrenceRule{
			Cadence:    core.Monthly,
			AnchorDate: core.NewDate(2024, 1, 31),
			DayOfMonth: core.IntPtr(31),
		},
		ReminderDaysBefore: 5,
		IsActive:           true,
		CategoryID:         "casa",
	}
}

func TestObligationRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.GetObligation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Affitto", got.Name)
	assert.Equal(t, core.Monthly, got.Rule.Cadence)
	assert.Equal(t, "2024-01-31", got.Rule.AnchorDate.String())
	assert.True(t, got.Rule.EndDate.IsZero())
	require.NotNil(t, got.Rule.DayOfMonth)
	assert.Equal(t, 31, *got.Rule.DayOfMonth)
	assert.Nil(t, got.Rule.DayOfWeek)
	assert.True(t, got.IsActive)

	got.Rule.EndDate = core.NewDate(2024, 12, 31)
	got.IsActive = false
	_, err = repo.SaveObligation(ctx, got)
	require.NoError(t, err)

	active, err := repo.ListActiveObligations(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	updated, err := repo.GetObligation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", updated.Rule.EndDate.String())
}

func TestGetObligationNotFound(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.GetObligation(context.Background(), 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteObligation(context.Background(), 42), core.ErrNotFound)
}

func TestCreateInstanceIsUniquePerDueDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)

	inst := core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 75000}}
	created, err := repo.CreateInstance(ctx, inst)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateInstance(ctx, inst)
	require.NoError(t, err, "conflicting insert is not an error")
	assert.False(t, created)

	list, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.Upcoming, list[0].Lifecycle)
	assert.False(t, list[0].ReminderSent)
}

func TestDeleteOpenInstancesFromKeepsClosedAndPast(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)

	for _, d := range []core.Date{
		core.NewDate(2024, 1, 31),
		core.NewDate(2024, 2, 29),
		core.NewDate(2024, 3, 31),
		core.NewDate(2024, 4, 30),
	} {
		_, err := repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: d, Amount: core.Money{Cents: 75000}})
		require.NoError(t, err)
	}
	list, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	require.NoError(t, repo.MarkPaid(ctx, list[2].ID, core.NewDate(2024, 3, 1)))

	n, err := repo.DeleteOpenInstancesFrom(ctx, id, core.NewDate(2024, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "2024-01-31", left[0].DueDate.String())
	assert.Equal(t, core.Paid, left[1].Lifecycle)
	assert.Equal(t, "2024-03-01", left[1].PaidDate.String())
}

func TestCloseInstanceIsOneWay(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)
	_, err = repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 1}})
	require.NoError(t, err)
	list, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	instID := list[0].ID

	require.NoError(t, repo.MarkCancelled(ctx, instID))
	assert.ErrorIs(t, repo.MarkPaid(ctx, instID, core.NewDate(2024, 3, 1)), core.ErrTerminalLifecycle)
	assert.ErrorIs(t, repo.MarkCancelled(ctx, 9999), core.ErrNotFound)

	open, err := repo.ListOpenPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestListOpenPaymentsJoinsObligation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)
	_, err = repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 3, 31), Amount: core.Money{Cents: 75000}})
	require.NoError(t, err)
	_, err = repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 75000}})
	require.NoError(t, err)

	sentAt := time.Date(2024, 2, 25, 8, 30, 0, 0, time.UTC)
	open, err := repo.ListOpenPayments(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.NoError(t, repo.MarkReminderSent(ctx, open[0].Instance.ID, sentAt))

	open, err = repo.ListOpenPayments(ctx)
	require.NoError(t, err)
	first := open[0]
	assert.Equal(t, "2024-02-29", first.Instance.DueDate.String())
	assert.Equal(t, "Affitto", first.ObligationName)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, 5, first.ReminderDaysBefore)
	assert.True(t, first.Instance.ReminderSent)
	assert.True(t, sentAt.Equal(first.Instance.ReminderSentAt))
}

func TestDeleteObligationCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)
	_, err = repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 1}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteObligation(ctx, id))
	list, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordSuppressesWithinWindow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	id, err := repo.SaveObligation(ctx, rentObligation())
	require.NoError(t, err)
	_, err = repo.CreateInstance(ctx, core.PaymentInstance{ObligationID: id, DueDate: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 1}})
	require.NoError(t, err)
	list, err := repo.ListInstances(ctx, id)
	require.NoError(t, err)
	instID := list[0].ID

	t0 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		typ  core.EventType
		at   time.Time
		want bool
	}{
		{"first alert", core.EventOverdue, t0, true},
		{"same hour", core.EventOverdue, t0.Add(time.Hour), false},
		{"next day inside window", core.EventOverdue, t0.Add(23 * time.Hour), false},
		{"other type is independent", core.EventReminder, t0.Add(time.Hour), true},
		{"window elapsed", core.EventOverdue, t0.Add(25 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Record(ctx, instID, tt.typ, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsightsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	in := core.Insight{
		ID:             "c3b6e0a8-0000-4000-8000-000000000001",
		UserID:         "u1",
		Type:           core.EventReminder,
		Title:          "Affitto in scadenza",
		Description:    "€750.00 due on 2024-02-29",
		StructuredData: map[string]any{"instance_id": float64(7)},
		CreatedAt:      time.Date(2024, 2, 25, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveInsight(ctx, in))

	got, err := repo.ListInsights(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.Title, got[0].Title)
	assert.Equal(t, float64(7), got[0].StructuredData["instance_id"])
	assert.True(t, in.CreatedAt.Equal(got[0].CreatedAt))
}

func TestSumExpensesHalfOpen(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, e := range []core.Expense{
		{UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 2, 29), Amount: core.Money{Cents: 999}},
		{UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 4000}},
		{UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 3, 31), Amount: core.Money{Cents: 5000}},
		{UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 4, 1), Amount: core.Money{Cents: 777}},
		{UserID: "u1", CategoryID: "fuel", Date: core.NewDate(2024, 3, 10), Amount: core.Money{Cents: 3000}},
		{UserID: "u2", CategoryID: "food", Date: core.NewDate(2024, 3, 10), Amount: core.Money{Cents: 3000}},
	} {
		_, err := repo.AddExpense(ctx, e)
		require.NoError(t, err)
	}

	got, err := repo.SumExpenses(ctx, "u1", "food", core.NewDate(2024, 3, 1), core.NewDate(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(9000), got.Cents)

	none, err := repo.SumExpenses(ctx, "u3", "food", core.NewDate(2024, 3, 1), core.NewDate(2024, 4, 1))
	require.NoError(t, err)
	assert.Zero(t, none.Cents)
}

func TestListBudgetsFiltersByUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	for _, b := range []core.Budget{
		{UserID: "u1", CategoryID: "food", Amount: core.Money{Cents: 10000}, Cadence: core.BudgetMonthly, StartDate: core.NewDate(2024, 1, 31)},
		{UserID: "u2", CategoryID: "fuel", Amount: core.Money{Cents: 5000}, Cadence: core.BudgetWeekly, StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 6, 1)},
	} {
		_, err := repo.SaveBudget(ctx, b)
		require.NoError(t, err)
	}

	all, err := repo.ListBudgets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListBudgets(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, core.BudgetWeekly, mine[0].Cadence)
	assert.Equal(t, "2024-06-01", mine[0].EndDate.String())
}

func TestHasData(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store func(*SQLiteRepository) error
	}{
		{"obligation", func(r *SQLiteRepository) error {
			_, err := r.SaveObligation(ctx, rentObligation())
			return err
		}},
		{"budget", func(r *SQLiteRepository) error {
			_, err := r.SaveBudget(ctx, core.Budget{UserID: "u1", CategoryID: "food", Amount: core.Money{Cents: 10000}, Cadence: core.BudgetMonthly, StartDate: core.NewDate(2024, 1, 1)})
			return err
		}},
		{"expense", func(r *SQLiteRepository) error {
			_, err := r.AddExpense(ctx, core.Expense{UserID: "u1", CategoryID: "food", Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: 1200}})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t)
			empty, err := repo.HasData(ctx)
			require.NoError(t, err)
			assert.False(t, empty)

			require.NoError(t, tt.store(repo))
			found, err := repo.HasData(ctx)
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}
