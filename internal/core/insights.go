package core

import "fmt"

// HealthLevel is the three-level classification used across the dashboard.
type HealthLevel string

const (
	Healthy  HealthLevel = "healthy"
	Warning  HealthLevel = "warning"
	Critical HealthLevel = "critical"
)

// Fixed thresholds for the dashboard indicators.
const (
	NearLimitPercent     = 80.0
	OverBudgetPercent    = 100.0
	SpendingWarnPercent  = 100.0
	SpendingCritPercent  = 110.0
	ReserveHealthyMonths = 6.0
	ReserveWarningMonths = 3.0
	GoalsHealthyPercent  = 80.0
	GoalsWarningPercent  = 50.0
)

func (l HealthLevel) rank() int {
	switch l {
	case Critical:
		return 2
	case Warning:
		return 1
	}
	return 0
}

// Worse returns the more severe of two levels.
func (l HealthLevel) Worse(o HealthLevel) HealthLevel {
	if o.rank() > l.rank() {
		return o
	}
	return l
}

func (l HealthLevel) Label() string {
	switch l {
	case Critical:
		return "Crítico"
	case Warning:
		return "Atenção"
	}
	return "Saudável"
}

// ClassifyUsage maps a usage percentage to a level: above 100 is critical,
// 80 through 100 inclusive is a warning.
func ClassifyUsage(pct float64) HealthLevel {
	switch {
	case pct > OverBudgetPercent:
		return Critical
	case pct >= NearLimitPercent:
		return Warning
	}
	return Healthy
}

// UsageLevel classifies used against limit on whole cents, so a fraction of
// a percent over a threshold still counts. A non-positive limit is healthy.
func UsageLevel(used, limit Money) HealthLevel {
	if limit.Cents <= 0 {
		return Healthy
	}
	switch {
	case used.Cents*100 > limit.Cents*int64(OverBudgetPercent):
		return Critical
	case used.Cents*100 >= limit.Cents*int64(NearLimitPercent):
		return Warning
	}
	return Healthy
}

// Usage returns the usage percentage for display, recomputing it from limit
// and usage when the API did not send one.
func (e Envelope) Usage() float64 {
	if e.UsagePercentage != 0 {
		return e.UsagePercentage
	}
	return Percent(e.CurrentUsage, e.Limit)
}

func (e Envelope) Available() Money { return e.Limit.Sub(e.CurrentUsage) }

// Level decides on cents when the envelope has a limit and falls back to the
// API percentage otherwise.
func (e Envelope) Level() HealthLevel {
	if e.Limit.Cents > 0 {
		return UsageLevel(e.CurrentUsage, e.Limit)
	}
	return ClassifyUsage(e.UsagePercentage)
}

func (e Envelope) IsOverBudget() bool { return e.Level() == Critical }

func (e Envelope) IsNearLimit() bool { return e.Level() == Warning }

// EnvelopeSummary aggregates a loaded envelope list.
type EnvelopeSummary struct {
	Count           int
	TotalAllocated  Money
	TotalSpent      Money
	Available       Money
	OverBudgetCount int
	NearLimitCount  int
	UsagePercentage float64
	Level           HealthLevel
}

func SummarizeEnvelopes(envelopes []Envelope) EnvelopeSummary {
	s := EnvelopeSummary{Count: len(envelopes)}
	for _, e := range envelopes {
		s.TotalAllocated = s.TotalAllocated.Add(e.Limit)
		s.TotalSpent = s.TotalSpent.Add(e.CurrentUsage)
		if e.IsOverBudget() {
			s.OverBudgetCount++
		} else if e.IsNearLimit() {
			s.NearLimitCount++
		}
	}
	s.Available = s.TotalAllocated.Sub(s.TotalSpent)
	s.UsagePercentage = Percent(s.TotalSpent, s.TotalAllocated)
	s.Level = UsageLevel(s.TotalSpent, s.TotalAllocated)
	return s
}

// HealthIndicator is one row of the financial health panel.
type HealthIndicator struct {
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Value   float64     `json:"value"`
	Display string      `json:"display"`
	Level   HealthLevel `json:"level"`
	Message string      `json:"message"`
}

// HealthInput carries the already-fetched figures the indicators are derived from.
type HealthInput struct {
	Income                 Money
	Expenses               Money
	AverageMonthlyExpenses Money
	LiquidReserve          Money
	Envelopes              []Envelope
	Goals                  []GoalProjection
}

// HealthReport is the indicator list plus the worst level among them.
type HealthReport struct {
	Overall    HealthLevel       `json:"overall"`
	Indicators []HealthIndicator `json:"indicators"`
}

func HealthIndicators(in HealthInput) HealthReport {
	indicators := []HealthIndicator{
		budgetUsageIndicator(in.Envelopes),
		spendingRatioIndicator(in.Income, in.Expenses),
		reserveIndicator(in.LiquidReserve, in.AverageMonthlyExpenses),
		goalsIndicator(in.Goals),
	}
	overall := Healthy
	for _, ind := range indicators {
		overall = overall.Worse(ind.Level)
	}
	return HealthReport{Overall: overall, Indicators: indicators}
}

func budgetUsageIndicator(envelopes []Envelope) HealthIndicator {
	s := SummarizeEnvelopes(envelopes)
	ind := HealthIndicator{
		Key:     "budget_usage",
		Label:   "Uso do orçamento",
		Value:   s.UsagePercentage,
		Display: fmt.Sprintf("%.0f%%", s.UsagePercentage),
		Level:   s.Level,
	}
	switch ind.Level {
	case Critical:
		ind.Message = fmt.Sprintf("%d envelope(s) acima do limite", s.OverBudgetCount)
	case Warning:
		ind.Message = "Orçamento próximo do limite"
	default:
		ind.Message = "Gastos dentro do planejado"
	}
	if s.Count == 0 {
		ind.Message = "Nenhum envelope cadastrado"
	}
	return ind
}

func spendingRatioIndicator(income, expenses Money) HealthIndicator {
	ind := HealthIndicator{Key: "spending_ratio", Label: "Despesas sobre receitas"}
	if income.Cents <= 0 {
		if expenses.Cents > 0 {
			ind.Level = Critical
			ind.Display = "sem receita"
			ind.Message = "Há despesas sem receita registrada"
			return ind
		}
		ind.Level = Healthy
		ind.Display = "0%"
		ind.Message = "Sem movimentação no período"
		return ind
	}
	ratio := Percent(expenses, income)
	ind.Value = ratio
	ind.Display = fmt.Sprintf("%.0f%%", ratio)
	switch {
	case expenses.Cents*100 > income.Cents*int64(SpendingCritPercent):
		ind.Level = Critical
		ind.Message = "Despesas muito acima das receitas"
	case expenses.Cents*100 > income.Cents*int64(SpendingWarnPercent):
		ind.Level = Warning
		ind.Message = "Despesas acima das receitas"
	default:
		ind.Level = Healthy
		ind.Message = "Receitas cobrem as despesas"
	}
	return ind
}

// ReserveMonths is how many months of average expenses the reserve covers.
func ReserveMonths(reserve, avgMonthly Money) float64 {
	if avgMonthly.Cents <= 0 {
		return 0
	}
	return Percent(reserve, avgMonthly) / 100
}

func reserveIndicator(reserve, avgMonthly Money) HealthIndicator {
	ind := HealthIndicator{Key: "emergency_reserve", Label: "Reserva de emergência"}
	if avgMonthly.Cents <= 0 {
		ind.Level = Healthy
		ind.Display = "sem histórico"
		ind.Message = "Ainda não há histórico de despesas"
		return ind
	}
	months := ReserveMonths(reserve, avgMonthly)
	ind.Value = months
	ind.Display = fmt.Sprintf("%.1f meses", months)
	switch {
	case reserve.Cents >= avgMonthly.Cents*int64(ReserveHealthyMonths):
		ind.Level = Healthy
		ind.Message = "Reserva cobre 6 meses ou mais"
	case reserve.Cents >= avgMonthly.Cents*int64(ReserveWarningMonths):
		ind.Level = Warning
		ind.Message = "Reserva entre 3 e 6 meses"
	default:
		ind.Level = Critical
		ind.Message = "Reserva abaixo de 3 meses"
	}
	return ind
}

func goalsIndicator(goals []GoalProjection) HealthIndicator {
	ind := HealthIndicator{Key: "goals_on_track", Label: "Metas em dia"}
	if len(goals) == 0 {
		ind.Level = Healthy
		ind.Display = "—"
		ind.Message = "Nenhuma meta cadastrada"
		return ind
	}
	onTrack := 0
	for _, g := range goals {
		if g.Status == GoalAchieved || g.Status == GoalOnTrack {
			onTrack++
		}
	}
	pct := float64(onTrack) * 100 / float64(len(goals))
	ind.Value = pct
	ind.Display = fmt.Sprintf("%d de %d", onTrack, len(goals))
	switch {
	case onTrack*100 >= len(goals)*int(GoalsHealthyPercent):
		ind.Level = Healthy
		ind.Message = "Metas avançando como planejado"
	case onTrack*100 >= len(goals)*int(GoalsWarningPercent):
		ind.Level = Warning
		ind.Message = "Algumas metas estão atrasadas"
	default:
		ind.Level = Critical
		ind.Message = "A maioria das metas está atrasada"
	}
	return ind
}
