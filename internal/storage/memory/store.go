// Package memory is an in-process backend with the same uniqueness and
// lifecycle rules as the SQLite schema. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bollette/internal/core"
)

type eventKey struct {
	instanceID int64
	eventType  core.EventType
}

type dueKey struct {
	obligationID int64
	day          string
}

type Store struct {
	mu sync.Mutex

	nextID      int64
	obligations map[int64]core.Obligation
	instances   map[int64]core.PaymentInstance
	dueIndex    map[dueKey]int64
	events      map[eventKey][]time.Time
	insights    []core.Insight
	budgets     []core.Budget
	expenses    []core.Expense
}

func NewStore() *Store {
	return &Store{
		obligations: make(map[int64]core.Obligation),
		instances:   make(map[int64]core.PaymentInstance),
		dueIndex:    make(map[dueKey]int64),
		events:      make(map[eventKey][]time.Time),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) SaveObligation(_ context.Context, o core.Obligation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.id()
	} else if _, ok := s.obligations[o.ID]; !ok {
		return 0, fmt.Errorf("update obligation %d: %w", o.ID, core.ErrNotFound)
	}
	s.obligations[o.ID] = o
	return o.ID, nil
}

func (s *Store) GetObligation(_ context.Context, id int64) (core.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.obligations[id]
	if !ok {
		return core.Obligation{}, fmt.Errorf("get obligation %d: %w", id, core.ErrNotFound)
	}
	return o, nil
}

func (s *Store) ListActiveObligations(_ context.Context) ([]core.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Obligation
	for _, o := range s.obligations {
		if o.IsActive {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteObligation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.obligations[id]; !ok {
		return fmt.Errorf("delete obligation %d: %w", id, core.ErrNotFound)
	}
	delete(s.obligations, id)
	for instID, inst := range s.instances {
		if inst.ObligationID == id {
			s.dropInstance(instID, inst)
		}
	}
	return nil
}

func (s *Store) dropInstance(id int64, inst core.PaymentInstance) {
	delete(s.instances, id)
	delete(s.dueIndex, dueKey{inst.ObligationID, inst.DueDate.String()})
	for k := range s.events {
		if k.instanceID == id {
			delete(s.events, k)
		}
	}
}

func (s *Store) ListInstances(_ context.Context, obligationID int64) ([]core.PaymentInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.PaymentInstance
	for _, inst := range s.instances {
		if inst.ObligationID == obligationID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate.Time) })
	return out, nil
}

func (s *Store) CreateInstance(_ context.Context, inst core.PaymentInstance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.obligations[inst.ObligationID]; !ok {
		return false, fmt.Errorf("create instance: obligation %d: %w", inst.ObligationID, core.ErrNotFound)
	}
	inst.DueDate = core.Today(inst.DueDate.Time)
	key := dueKey{inst.ObligationID, inst.DueDate.String()}
	if _, exists := s.dueIndex[key]; exists {
		return false, nil
	}
	if inst.Lifecycle == "" {
		inst.Lifecycle = core.Upcoming
	}
	inst.ID = s.id()
	s.instances[inst.ID] = inst
	s.dueIndex[key] = inst.ID
	return true, nil
}

func (s *Store) DeleteOpenInstancesFrom(_ context.Context, obligationID int64, from core.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := core.TruncateDay(from.Time)
	n := 0
	for id, inst := range s.instances {
		if inst.ObligationID != obligationID {
			continue
		}
		if inst.Lifecycle != core.Upcoming && inst.Lifecycle != core.DueSoon {
			continue
		}
		if inst.DueDate.Before(cutoff) {
			continue
		}
		s.dropInstance(id, inst)
		n++
	}
	return n, nil
}

func (s *Store) ListOpenPayments(_ context.Context) ([]core.ScheduledPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.ScheduledPayment
	for _, inst := range s.instances {
		if inst.Lifecycle.Terminal() {
			continue
		}
		o := s.obligations[inst.ObligationID]
		out = append(out, core.ScheduledPayment{
			Instance:           inst,
			ObligationName:     o.Name,
			UserID:             o.UserID,
			ReminderDaysBefore: o.ReminderDaysBefore,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Instance, out[j].Instance
		if !a.DueDate.Equal(b.DueDate.Time) {
			return a.DueDate.Before(b.DueDate.Time)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) MarkReminderSent(_ context.Context, instanceID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok {
		return fmt.Errorf("mark reminder sent for instance %d: %w", instanceID, core.ErrNotFound)
	}
	inst.ReminderSent = true
	inst.ReminderSentAt = at.UTC()
	s.instances[instanceID] = inst
	return nil
}

func (s *Store) MarkPaid(_ context.Context, instanceID int64, paidDate core.Date) error {
	return s.closeInstance(instanceID, core.Paid, paidDate)
}

func (s *Store) MarkCancelled(_ context.Context, instanceID int64) error {
	return s.closeInstance(instanceID, core.Cancelled, core.Date{})
}

func (s *Store) closeInstance(instanceID int64, to core.Lifecycle, paid core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[instanceID]
	if !ok {
		return fmt.Errorf("mark instance %d %s: %w", instanceID, to, core.ErrNotFound)
	}
	if inst.Lifecycle.Terminal() {
		return fmt.Errorf("mark instance %d %s (is %s): %w", instanceID, to, inst.Lifecycle, core.ErrTerminalLifecycle)
	}
	inst.Lifecycle = to
	inst.PaidDate = paid
	s.instances[instanceID] = inst
	return nil
}

// Record keeps every accepted event time per (instance, type) and rejects
// one that falls within 24 hours after the latest accepted one.
func (s *Store) Record(_ context.Context, instanceID int64, eventType core.EventType, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{instanceID, eventType}
	for _, prev := range s.events[key] {
		if prev.After(at.Add(-24 * time.Hour)) {
			return false, nil
		}
	}
	s.events[key] = append(s.events[key], at.UTC())
	return true, nil
}

func (s *Store) SaveInsight(_ context.Context, in core.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insights = append(s.insights, in)
	return nil
}

// ListInsights returns the most recent insights of userID, newest first.
func (s *Store) ListInsights(_ context.Context, userID string, limit int) ([]core.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Insight
	for i := len(s.insights) - 1; i >= 0 && len(out) < limit; i-- {
		if s.insights[i].UserID == userID {
			out = append(out, s.insights[i])
		}
	}
	return out, nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.id()
	s.budgets = append(s.budgets, b)
	return b.ID, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Budget
	for _, b := range s.budgets {
		if userID == "" || b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id()
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) SumExpenses(_ context.Context, userID, categoryID string, start, end core.Date) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := core.TruncateDay(start.Time), core.TruncateDay(end.Time)
	var total int64
	for _, e := range s.expenses {
		if e.UserID != userID || e.CategoryID != categoryID {
			continue
		}
		d := core.TruncateDay(e.Date.Time)
		if !d.Before(lo) && d.Before(hi) {
			total += e.Amount.Cents
		}
	}
	return core.Money{Cents: total}, nil
}

func (s *Store) HasData(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.obligations) > 0 || len(s.budgets) > 0 || len(s.expenses) > 0, nil
}

func (s *Store) Close() error { return nil }
