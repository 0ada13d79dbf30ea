package schedule

import (
	"testing"
	"time"

	"bollette/internal/core"
)

func TestGenerateHorizon(t *testing.T) {
	amount := core.Money{Cents: 5000}

	tests := []struct {
		name  string
		rule  core.RecurrenceRule
		count int
		now   time.Time
		want  []core.Date
	}{
		{
			name:  "quarterly cut short by end date",
			rule:  core.RecurrenceRule{Cadence: core.Quarterly, AnchorDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 6, 1)},
			count: 6,
			now:   at(2024, 1, 1),
			want:  []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 4, 1)},
		},
		{
			name:  "monthly 31st over short months",
			rule:  core.RecurrenceRule{Cadence: core.Monthly, AnchorDate: core.NewDate(2024, 1, 31), DayOfMonth: core.IntPtr(31)},
			count: 4,
			now:   at(2024, 2, 1),
			want: []core.Date{
				core.NewDate(2024, 2, 29),
				core.NewDate(2024, 3, 31),
				core.NewDate(2024, 4, 30),
				core.NewDate(2024, 5, 31),
			},
		},
		{
			name:  "weekly default count",
			rule:  core.RecurrenceRule{Cadence: core.Weekly, AnchorDate: core.NewDate(2024, 1, 1)},
			count: 0,
			now:   at(2024, 1, 10),
			want: []core.Date{
				core.NewDate(2024, 1, 15),
				core.NewDate(2024, 1, 22),
				core.NewDate(2024, 1, 29),
				core.NewDate(2024, 2, 5),
				core.NewDate(2024, 2, 12),
				core.NewDate(2024, 2, 19),
			},
		},
		{
			name:  "one time upcoming",
			rule:  core.RecurrenceRule{Cadence: core.OneTime, AnchorDate: core.NewDate(2024, 9, 1)},
			count: 6,
			now:   at(2024, 8, 1),
			want:  []core.Date{core.NewDate(2024, 9, 1)},
		},
		{
			name:  "one time already passed",
			rule:  core.RecurrenceRule{Cadence: core.OneTime, AnchorDate: core.NewDate(2024, 9, 1)},
			count: 6,
			now:   at(2024, 9, 2),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateHorizon(tt.rule, amount, tt.count, tt.now)
			if len(got) != len(tt.want) {
				t.Fatalf("GenerateHorizon() returned %d occurrences, want %d: %v", len(got), len(tt.want), got)
			}
			for i, occ := range got {
				if !occ.DueDate.Equal(tt.want[i].Time) {
					t.Errorf("occurrence %d = %s, want %s", i, occ.DueDate, tt.want[i])
				}
				if occ.Amount != amount {
					t.Errorf("occurrence %d amount = %v, want %v", i, occ.Amount, amount)
				}
			}
		})
	}
}

func TestGenerateHorizon_StrictlyIncreasing(t *testing.T) {
	cadences := []core.Cadence{core.Weekly, core.Biweekly, core.Quarterly, core.SemiAnnual, core.Annual}
	for _, c := range cadences {
		rule := core.RecurrenceRule{Cadence: c, AnchorDate: core.NewDate(2023, 8, 31)}
		got := GenerateHorizon(rule, core.Money{Cents: 1}, 12, at(2024, 2, 29))
		if len(got) != 12 {
			t.Fatalf("%s: expected 12 occurrences, got %d", c, len(got))
		}
		for i := 1; i < len(got); i++ {
			if !got[i].DueDate.After(got[i-1].DueDate.Time) {
				t.Fatalf("%s: occurrence %d (%s) not after %s", c, i, got[i].DueDate, got[i-1].DueDate)
			}
		}
	}
}
