package weather

import (
	"fmt"
	"strings"
	"time"

	"buildops/internal/models"
)

// Site-wide limits above which a day is unsuitable for any outdoor work.
const (
	UnsuitablePrecipitation = 0.5 // inches
	UnsuitableWind          = 25  // mph
	UnsuitableTempMin       = 32  // °F
	UnsuitableTempMax       = 95  // °F

	// MaxSearchDays bounds the forward search for a replacement date.
	MaxSearchDays = 7

	// AutoApplyImpact is the impact score from which adjustments apply
	// without manual approval.
	AutoApplyImpact = 8

	maxImpact = 10
)

type ViolationKind string

const (
	ViolationPrecipitation ViolationKind = "precipitation"
	ViolationWind          ViolationKind = "wind"
	ViolationTemperature   ViolationKind = "temperature"
	ViolationHumidity      ViolationKind = "humidity"
)

var impactPoints = map[ViolationKind]int{
	ViolationPrecipitation: 4,
	ViolationWind:          3,
	ViolationTemperature:   2,
	ViolationHumidity:      1,
}

// Violation is one threshold a day's forecast breaks.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Actual float64       `json:"actual"`
	Limit  float64       `json:"limit"`
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationPrecipitation:
		return fmt.Sprintf("precipitation %.2fin > %.2fin", v.Actual, v.Limit)
	case ViolationWind:
		return fmt.Sprintf("wind %.0fmph > %.0fmph", v.Actual, v.Limit)
	case ViolationHumidity:
		return fmt.Sprintf("humidity %.0f%% > %.0f%%", v.Actual, v.Limit)
	default:
		if v.Actual < v.Limit {
			return fmt.Sprintf("temperature %.0fF < %.0fF", v.Actual, v.Limit)
		}
		return fmt.Sprintf("temperature %.0fF > %.0fF", v.Actual, v.Limit)
	}
}

// Evaluate checks a day against an activity's thresholds. Unset thresholds
// are not checked.
func Evaluate(day DailyForecast, a models.WeatherSensitiveActivity) []Violation {
	var out []Violation
	if a.MinTemperature != nil && day.TempMin < *a.MinTemperature {
		out = append(out, Violation{Kind: ViolationTemperature, Actual: day.TempMin, Limit: *a.MinTemperature})
	}
	if a.MaxTemperature != nil && day.TempMax > *a.MaxTemperature {
		out = append(out, Violation{Kind: ViolationTemperature, Actual: day.TempMax, Limit: *a.MaxTemperature})
	}
	if a.MaxWindSpeed != nil && day.WindMax > *a.MaxWindSpeed {
		out = append(out, Violation{Kind: ViolationWind, Actual: day.WindMax, Limit: *a.MaxWindSpeed})
	}
	if a.MaxPrecipitation != nil && day.Precipitation > *a.MaxPrecipitation {
		out = append(out, Violation{Kind: ViolationPrecipitation, Actual: day.Precipitation, Limit: *a.MaxPrecipitation})
	}
	if a.MaxHumidity != nil && day.HumidityAvg > *a.MaxHumidity {
		out = append(out, Violation{Kind: ViolationHumidity, Actual: day.HumidityAvg, Limit: *a.MaxHumidity})
	}
	return out
}

// ImpactScore tallies points once per violated kind, capped at 10.
func ImpactScore(violations []Violation) int {
	seen := map[ViolationKind]bool{}
	score := 0
	for _, v := range violations {
		if seen[v.Kind] {
			continue
		}
		seen[v.Kind] = true
		score += impactPoints[v.Kind]
	}
	if score > maxImpact {
		score = maxImpact
	}
	return score
}

type DayClass string

const (
	DaySuitable   DayClass = "suitable"
	DayCaution    DayClass = "caution"
	DayUnsuitable DayClass = "unsuitable"
)

// ClassifyDay: unsuitable when site-wide limits are broken, caution when
// any scheduled activity is flagged, suitable otherwise.
func ClassifyDay(day DailyForecast, anyFlagged bool) DayClass {
	switch {
	case day.Precipitation > UnsuitablePrecipitation,
		day.WindMax > UnsuitableWind,
		day.TempMin < UnsuitableTempMin,
		day.TempMax > UnsuitableTempMax:
		return DayUnsuitable
	case anyFlagged:
		return DayCaution
	default:
		return DaySuitable
	}
}

// FindNextSuitableDate looks 1..7 days after date for the first forecast day
// without violations. Days outside the forecast cannot be checked and are
// skipped. With no match the task moves a full 7 days.
func FindNextSuitableDate(date time.Time, a models.WeatherSensitiveActivity, forecast []DailyForecast) time.Time {
	days := index(forecast)
	for i := 1; i <= MaxSearchDays; i++ {
		candidate := date.AddDate(0, 0, i)
		day, ok := days[DateKey(candidate)]
		if ok && len(Evaluate(day, a)) == 0 {
			return candidate
		}
	}
	return date.AddDate(0, 0, MaxSearchDays)
}

// Reason renders a human readable explanation for an adjustment.
func Reason(day DailyForecast, activity string, violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("forecast for %s exceeds %s limits: %s", day.Date, activity, strings.Join(parts, "; "))
}
