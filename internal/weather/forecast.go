package weather

import (
	"math"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Interval is one forecast slot (3 hours for OpenWeatherMap) in imperial units.
type Interval struct {
	Time          time.Time
	Temp          float64 // °F
	TempMin       float64
	TempMax       float64
	Humidity      float64 // %
	WindSpeed     float64 // mph
	Precipitation float64 // inches in the slot (rain + snow water)
	Condition     string
}

// DailyForecast summarises all intervals of one local calendar day.
type DailyForecast struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	TempMin       float64 `json:"temperature_min"`
	TempMax       float64 `json:"temperature_max"`
	TempAvg       float64 `json:"temperature_avg"`
	WindMax       float64 `json:"wind_speed_max"`
	WindAvg       float64 `json:"wind_speed_avg"`
	Precipitation float64 `json:"precipitation"`
	HumidityAvg   float64 `json:"humidity_avg"`
	Condition     string  `json:"condition"`
}

// Aggregate groups intervals by calendar day in loc and returns days in
// chronological order.
func Aggregate(intervals []Interval, loc *time.Location) []DailyForecast {
	if loc == nil {
		loc = time.UTC
	}

	type acc struct {
		day        DailyForecast
		n          int
		tempSum    float64
		windSum    float64
		humSum     float64
		conditions map[string]int
	}
	byDay := map[string]*acc{}

	for _, in := range intervals {
		key := in.Time.In(loc).Format(dateLayout)
		a, ok := byDay[key]
		if !ok {
			a = &acc{
				day: DailyForecast{
					Date:    key,
					TempMin: math.Inf(1),
					TempMax: math.Inf(-1),
				},
				conditions: map[string]int{},
			}
			byDay[key] = a
		}
		a.n++
		a.day.TempMin = math.Min(a.day.TempMin, in.TempMin)
		a.day.TempMax = math.Max(a.day.TempMax, in.TempMax)
		a.day.WindMax = math.Max(a.day.WindMax, in.WindSpeed)
		a.day.Precipitation += in.Precipitation
		a.tempSum += in.Temp
		a.windSum += in.WindSpeed
		a.humSum += in.Humidity
		if in.Condition != "" {
			a.conditions[in.Condition]++
		}
	}

	out := make([]DailyForecast, 0, len(byDay))
	for _, a := range byDay {
		n := float64(a.n)
		a.day.TempAvg = a.tempSum / n
		a.day.WindAvg = a.windSum / n
		a.day.HumidityAvg = a.humSum / n
		a.day.Condition = dominant(a.conditions)
		out = append(out, a.day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// dominant returns the most frequent condition, ties broken alphabetically.
func dominant(counts map[string]int) string {
	best, bestN := "", 0
	for c, n := range counts {
		if n > bestN || (n == bestN && c < best) {
			best, bestN = c, n
		}
	}
	return best
}

// index maps YYYY-MM-DD to the day's forecast.
func index(days []DailyForecast) map[string]DailyForecast {
	m := make(map[string]DailyForecast, len(days))
	for _, d := range days {
		m[d.Date] = d
	}
	return m
}

// DateKey formats a task date the way forecast days are keyed. Task dates
// are date-only values stored at UTC midnight.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
