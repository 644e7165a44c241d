package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *Date {
	dt := NewDate(y, m, d)
	return &dt
}

func TestWholeMonthsBetween(t *testing.T) {
	cases := []struct {
		from, to time.Time
		want     int
	}{
		{day(2025, 1, 15), day(2025, 4, 15), 3},
		{day(2025, 1, 15), day(2025, 4, 14), 2},
		{day(2024, 11, 30), day(2025, 2, 28), 2},
		{day(2025, 1, 1), day(2025, 1, 31), 0},
		{day(2025, 6, 1), day(2026, 6, 1), 12},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WholeMonthsBetween(tc.from, tc.to), "%s→%s", tc.from, tc.to)
	}
}

func TestSuggestedMonthly(t *testing.T) {
	now := day(2025, 1, 15)

	g := Goal{TotalAmount: Cents(100000), AccumulatedAmount: Cents(10000), Deadline: datePtr(2025, 4, 15)}
	s := SuggestedMonthly(g, now)
	require.NotNil(t, s)
	assert.Equal(t, int64(30000), s.Cents)

	// rounds up to the cent
	g = Goal{TotalAmount: Cents(10000), Deadline: datePtr(2025, 4, 15)}
	s = SuggestedMonthly(g, now)
	require.NotNil(t, s)
	assert.Equal(t, int64(3334), s.Cents)

	// less than a month away asks for everything
	g = Goal{TotalAmount: Cents(5000), Deadline: datePtr(2025, 1, 15)}
	s = SuggestedMonthly(g, now)
	require.NotNil(t, s)
	assert.Equal(t, int64(5000), s.Cents)
}

func TestSuggestedMonthlyNil(t *testing.T) {
	now := day(2025, 1, 15)

	assert.Nil(t, SuggestedMonthly(Goal{TotalAmount: Cents(1000)}, now), "no deadline")
	assert.Nil(t, SuggestedMonthly(Goal{TotalAmount: Cents(1000), Deadline: datePtr(2025, 1, 14)}, now), "deadline passed")
	assert.Nil(t, SuggestedMonthly(Goal{TotalAmount: Cents(1000), AccumulatedAmount: Cents(1000), Deadline: datePtr(2026, 1, 1)}, now), "achieved")
}

func TestGoalProgressAndRemaining(t *testing.T) {
	g := Goal{TotalAmount: Cents(2000), AccumulatedAmount: Cents(500)}
	assert.Equal(t, 25.0, g.Progress())
	assert.Equal(t, int64(1500), g.Remaining().Cents)

	over := Goal{TotalAmount: Cents(2000), AccumulatedAmount: Cents(2500)}
	assert.Equal(t, 100.0, over.Progress())
	assert.True(t, over.Remaining().IsZero())
}

func TestGoalStatus(t *testing.T) {
	now := day(2025, 1, 6)
	base := Goal{TotalAmount: Cents(1000), CreatedAt: datePtr(2025, 1, 1), Deadline: datePtr(2025, 1, 11)}

	onTrack := base
	onTrack.AccumulatedAmount = Cents(500)
	assert.Equal(t, GoalOnTrack, Status(onTrack, now))

	behind := base
	behind.AccumulatedAmount = Cents(400)
	assert.Equal(t, GoalBehind, Status(behind, now))

	done := base
	done.AccumulatedAmount = Cents(1000)
	assert.Equal(t, GoalAchieved, Status(done, now))

	assert.Equal(t, GoalOverdue, Status(base, day(2025, 1, 12)))

	noCreated := Goal{TotalAmount: Cents(1000), Deadline: datePtr(2025, 2, 1)}
	assert.Equal(t, GoalOnTrack, Status(noCreated, now))
}

func TestProjectGoals(t *testing.T) {
	now := day(2025, 1, 15)
	p := ProjectGoals([]Goal{
		{ID: "a", TotalAmount: Cents(1200), Deadline: datePtr(2026, 1, 15)},
		{ID: "b", TotalAmount: Cents(1000)},
	}, now)
	require.Len(t, p, 2)
	assert.Equal(t, 12, p[0].MonthsLeft)
	require.NotNil(t, p[0].SuggestedMonthly)
	assert.Equal(t, int64(100), p[0].SuggestedMonthly.Cents)
	assert.Equal(t, -1, p[1].MonthsLeft)
	assert.Nil(t, p[1].SuggestedMonthly)

	total, acc := GoalTotals([]Goal{p[0].Goal, p[1].Goal})
	assert.Equal(t, int64(2200), total.Cents)
	assert.Equal(t, int64(0), acc.Cents)
}

func TestParseDateKeepsOffsetDay(t *testing.T) {
	d, err := ParseDate("2025-03-01T22:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.String())
	assert.Equal(t, time.UTC, d.Location())

	d, err = ParseDate("2025-03-02T01:00:00+09:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", d.String())

	var deadline Date
	require.NoError(t, deadline.UnmarshalJSON([]byte(`"2025-03-09T23:30:00-03:00"`)))
	g := Goal{TotalAmount: Cents(1000), Deadline: &deadline}
	assert.False(t, g.DeadlinePassed(day(2025, 3, 9)), "deadline day is still open")
	assert.True(t, g.DeadlinePassed(day(2025, 3, 10)))
}
