package costs

import (
	"math"
	"time"

	"buildops/internal/models"
)

const (
	weightLinear     = 0.4
	weightBurnRate   = 0.4
	weightHistorical = 0.2

	burnWindowDays = 30

	// без истории закладываем перерасход 10%
	defaultOverrunRatio = 1.1

	monthDays = 30
)

// Inputs is everything the prediction needs, already loaded.
type Inputs struct {
	Budget        float64
	CompletionPct float64
	EndDate       *time.Time

	CostEntries    []models.CostEntry
	ChangeOrders   []models.ChangeOrder
	MaterialUsages []models.MaterialUsage
	TimeEntries    []models.TimeEntry

	// Completed projects of the same type.
	Historical []models.Project
}

// Breakdown splits current spend by source.
type Breakdown struct {
	Labor     float64 `json:"labor"`
	Materials float64 `json:"materials"`
	Other     float64 `json:"other"`
}

// Probabilities are percentages in [0, 100].
type Probabilities struct {
	OnBudget         float64 `json:"on_budget"`
	WithinTenPercent float64 `json:"within_ten_percent"`
	OnTime           float64 `json:"on_time"`
}

// MonthlyForecast is the projected spend for one calendar month.
type MonthlyForecast struct {
	Month      string  `json:"month"` // YYYY-MM
	Amount     float64 `json:"amount"`
	Cumulative float64 `json:"cumulative"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the outcome of a cost forecast. It is never persisted.
type Prediction struct {
	ProjectID uint `json:"project_id"`

	Budget         float64 `json:"budget"`
	ApprovedChange float64 `json:"approved_change_orders"`
	AdjustedBudget float64 `json:"adjusted_budget"`

	CurrentSpend float64   `json:"current_spend"`
	Breakdown    Breakdown `json:"breakdown"`
	BurnRate     float64   `json:"burn_rate"`
	DaysLeft     int       `json:"days_remaining"`

	LinearProjection     float64 `json:"linear_projection"`
	BurnRateProjection   float64 `json:"burn_rate_projection"`
	HistoricalProjection float64 `json:"historical_projection"`

	PredictedFinalCost float64 `json:"predicted_final_cost"`
	Variance           float64 `json:"variance"`
	VariancePct        float64 `json:"variance_percentage"`

	Probabilities Probabilities     `json:"completion_probabilities"`
	Forecast      []MonthlyForecast `json:"monthly_forecast"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// Compute is the pure forecast given loaded inputs.
func Compute(in Inputs, now time.Time) Prediction {
	p := Prediction{
		Budget:      in.Budget,
		GeneratedAt: now,
	}

	for _, co := range in.ChangeOrders {
		if co.Status == models.ChangeOrderApproved {
			p.ApprovedChange += co.Amount
		}
	}
	p.AdjustedBudget = in.Budget + p.ApprovedChange

	p.Breakdown = breakdown(in)
	p.CurrentSpend = p.Breakdown.Labor + p.Breakdown.Materials + p.Breakdown.Other
	p.BurnRate = BurnRate(in.CostEntries, now)
	p.DaysLeft = DaysRemaining(in.EndDate, now)

	p.LinearProjection = LinearProjection(p.CurrentSpend, in.CompletionPct, in.Budget)
	p.BurnRateProjection = p.CurrentSpend + p.BurnRate*float64(p.DaysLeft)
	p.HistoricalProjection = HistoricalProjection(in.Budget, in.Historical)

	p.PredictedFinalCost = weightLinear*p.LinearProjection +
		weightBurnRate*p.BurnRateProjection +
		weightHistorical*p.HistoricalProjection

	p.Variance = p.PredictedFinalCost - p.AdjustedBudget
	if p.AdjustedBudget > 0 {
		p.VariancePct = p.Variance / p.AdjustedBudget * 100
	}

	p.Probabilities = CompletionProbabilities(p.VariancePct)
	p.Forecast = MonthlyBreakdown(p.PredictedFinalCost, p.CurrentSpend, p.DaysLeft, now)
	return p
}

func breakdown(in Inputs) Breakdown {
	var b Breakdown
	for _, t := range in.TimeEntries {
		b.Labor += t.Cost()
	}
	for _, m := range in.MaterialUsages {
		b.Materials += m.Cost()
	}
	for _, c := range in.CostEntries {
		b.Other += c.Amount
	}
	return b
}

// BurnRate is the average daily spend from cost entries over the trailing 30 days.
func BurnRate(entries []models.CostEntry, now time.Time) float64 {
	since := now.AddDate(0, 0, -burnWindowDays)
	var sum float64
	for _, e := range entries {
		if e.EntryDate.After(since) && !e.EntryDate.After(now) {
			sum += e.Amount
		}
	}
	return sum / burnWindowDays
}

// DaysRemaining counts whole days until end, 0 when unknown or past.
func DaysRemaining(end *time.Time, now time.Time) int {
	if end == nil || !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// LinearProjection extrapolates current spend to 100% completion. Without
// progress it falls back to the larger of budget and spend.
func LinearProjection(spend, completionPct, budget float64) float64 {
	if completionPct <= 0 {
		return math.Max(budget, spend)
	}
	return spend / (completionPct / 100)
}

// HistoricalProjection applies the mean actual/budget ratio of completed
// projects to budget, or a 10% overrun when there is no usable history.
func HistoricalProjection(budget float64, completed []models.Project) float64 {
	var sum float64
	n := 0
	for _, p := range completed {
		if p.Budget <= 0 || p.ActualCost <= 0 {
			continue
		}
		sum += p.ActualCost / p.Budget
		n++
	}
	if n == 0 {
		return budget * defaultOverrunRatio
	}
	return budget * (sum / float64(n))
}

// CompletionProbabilities are linear penalties on |variance %|, so every value
// is non-increasing as the variance grows in either direction.
func CompletionProbabilities(variancePct float64) Probabilities {
	v := math.Abs(variancePct)
	return Probabilities{
		OnBudget:         clampPct(100 - 2*v),
		WithinTenPercent: clampPct(100 - 3*math.Max(0, v-10)),
		OnTime:           clampPct(90 - v),
	}
}

// MonthlyBreakdown spreads the remaining predicted cost evenly over the
// remaining months, starting with the current one. Confidence drops by 0.05
// per month from 0.95, floored at 0.3.
func MonthlyBreakdown(predicted, spend float64, daysLeft int, now time.Time) []MonthlyForecast {
	remaining := math.Max(0, predicted-spend)
	months := int(math.Ceil(float64(daysLeft) / monthDays))
	if months < 1 {
		months = 1
	}

	per := remaining / float64(months)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := make([]MonthlyForecast, 0, months)
	for i := 0; i < months; i++ {
		out = append(out, MonthlyForecast{
			Month:      start.AddDate(0, i, 0).Format("2006-01"),
			Amount:     per,
			Cumulative: spend + per*float64(i+1),
			Confidence: math.Max(0.3, 0.95-0.05*float64(i)),
		})
	}
	return out
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
