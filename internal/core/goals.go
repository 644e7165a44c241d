package core

import "time"

type GoalStatus string

const (
	GoalAchieved GoalStatus = "ACHIEVED"
	GoalOverdue  GoalStatus = "OVERDUE"
	GoalOnTrack  GoalStatus = "ON_TRACK"
	GoalBehind   GoalStatus = "BEHIND"
)

func (s GoalStatus) Label() string {
	switch s {
	case GoalAchieved:
		return "Concluída"
	case GoalOverdue:
		return "Prazo vencido"
	case GoalBehind:
		return "Atrasada"
	}
	return "Em dia"
}

// Progress is accumulated/total*100, capped at 100.
func (g Goal) Progress() float64 {
	p := Percent(g.AccumulatedAmount, g.TotalAmount)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// Remaining is what is still missing to reach the total, never negative.
func (g Goal) Remaining() Money {
	r := g.TotalAmount.Sub(g.AccumulatedAmount)
	if r.Cents < 0 {
		return Money{}
	}
	return r
}

func (g Goal) IsAchieved() bool {
	return g.TotalAmount.Cents > 0 && g.AccumulatedAmount.Cents >= g.TotalAmount.Cents
}

// dateOnly drops the clock, keeping the calendar fields of t.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeMonthsBetween subtracts calendar fields and takes one month off when
// the day of month of to has not yet reached the day of month of from.
func WholeMonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// DeadlinePassed reports whether the goal deadline lies before today's date.
func (g Goal) DeadlinePassed(now time.Time) bool {
	if g.Deadline == nil || g.Deadline.IsZero() {
		return false
	}
	return dateOnly(g.Deadline.Time).Before(dateOnly(now))
}

// MonthsLeft returns the whole months until the deadline, or -1 without one.
func (g Goal) MonthsLeft(now time.Time) int {
	if g.Deadline == nil || g.Deadline.IsZero() {
		return -1
	}
	return WholeMonthsBetween(dateOnly(now), dateOnly(g.Deadline.Time))
}

// SuggestedMonthly is remaining / whole months until the deadline, rounded up
// to the cent. It is nil without a deadline, once the deadline has passed, or
// when nothing remains. A deadline less than a month away asks for the whole
// remainder.
func SuggestedMonthly(g Goal, now time.Time) *Money {
	if g.Deadline == nil || g.Deadline.IsZero() || g.DeadlinePassed(now) {
		return nil
	}
	remaining := g.Remaining()
	if remaining.Cents <= 0 {
		return nil
	}
	months := g.MonthsLeft(now)
	if months < 1 {
		months = 1
	}
	per := (remaining.Cents + int64(months) - 1) / int64(months)
	return &Money{Cents: per}
}

// Status classifies a goal. With a creation date the goal is on track when its
// progress keeps up with the elapsed share of the creation→deadline window.
func Status(g Goal, now time.Time) GoalStatus {
	if g.IsAchieved() {
		return GoalAchieved
	}
	if g.DeadlinePassed(now) {
		return GoalOverdue
	}
	if g.Deadline == nil || g.Deadline.IsZero() || g.CreatedAt == nil || g.CreatedAt.IsZero() {
		return GoalOnTrack
	}

	start := dateOnly(g.CreatedAt.Time)
	end := dateOnly(g.Deadline.Time)
	today := dateOnly(now)
	window := end.Sub(start)
	if window <= 0 {
		return GoalOnTrack
	}
	elapsed := today.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	expected := float64(elapsed) / float64(window) * 100
	if g.Progress() >= expected {
		return GoalOnTrack
	}
	return GoalBehind
}

// GoalProjection is a goal plus everything derived from it for display.
type GoalProjection struct {
	Goal             Goal
	Progress         float64
	Remaining        Money
	SuggestedMonthly *Money
	MonthsLeft       int
	Status           GoalStatus
}

func ProjectGoal(g Goal, now time.Time) GoalProjection {
	return GoalProjection{
		Goal:             g,
		Progress:         g.Progress(),
		Remaining:        g.Remaining(),
		SuggestedMonthly: SuggestedMonthly(g, now),
		MonthsLeft:       g.MonthsLeft(now),
		Status:           Status(g, now),
	}
}

func ProjectGoals(goals []Goal, now time.Time) []GoalProjection {
	out := make([]GoalProjection, 0, len(goals))
	for _, g := range goals {
		out = append(out, ProjectGoal(g, now))
	}
	return out
}

// GoalTotals sums target and accumulated amounts over all goals.
func GoalTotals(goals []Goal) (total, accumulated Money) {
	for _, g := range goals {
		total = total.Add(g.TotalAmount)
		accumulated = accumulated.Add(g.AccumulatedAmount)
	}
	return total, accumulated
}
