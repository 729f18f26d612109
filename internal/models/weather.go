package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WeatherSensitiveActivity: пороги погоды для типа работ.
// nil означает, что параметр не проверяется.
type WeatherSensitiveActivity struct {
	gorm.Model
	ActivityType string `gorm:"size:64;uniqueIndex;not null"`
	Description  string `gorm:"type:text"`

	MinTemperature   *float64 // °F
	MaxTemperature   *float64 // °F
	MaxWindSpeed     *float64 // mph
	MaxPrecipitation *float64 // дюймы за день
	MaxHumidity      *float64 // %
}

// NormalizeActivityType приводит тип работ к виду каталога: обрезанный, в нижнем регистре.
func NormalizeActivityType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WeatherScheduleAdjustment: запись о переносе задачи из-за погоды.
// Пишется только когда перенос реально применён.
type WeatherScheduleAdjustment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	PublicID  string `gorm:"size:36;uniqueIndex"`
	ProjectID uint   `gorm:"index"`
	TaskID    uint   `gorm:"index"`

	OriginalDate time.Time
	NewDate      time.Time
	Reason       string `gorm:"type:text"`
	ImpactScore  int
	AutoApplied  bool
	Violations   datatypes.JSON
	AppliedBy    uint // 0: система
}
