package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// QualityInspection: результат приёмки / проверки качества
type QualityInspection struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	InspectionDate time.Time
	Inspector      string  `gorm:"size:255"`
	Score          float64 // 0..100
	DefectCount    int
	Passed         bool
	Notes          string `gorm:"type:text"`
}

// DailyReport: ежедневный отчёт прораба
type DailyReport struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	ReportDate        time.Time
	WeatherConditions string `gorm:"size:100"` // свободный текст: "clear", "heavy rain", ...
	WeatherDelay      bool
	CrewCount         int
	Notes             string `gorm:"type:text"`
}

var adverseWeatherWords = []string{
	"rain", "storm", "snow", "sleet", "hail", "thunder", "freezing", "extreme", "high wind",
}

// HasAdverseWeather: день с задержкой или плохой погодой по описанию.
func (r DailyReport) HasAdverseWeather() bool {
	if r.WeatherDelay {
		return true
	}
	cond := strings.ToLower(r.WeatherConditions)
	for _, w := range adverseWeatherWords {
		if strings.Contains(cond, w) {
			return true
		}
	}
	return false
}
