package models

import (
	"time"

	"gorm.io/datatypes"
)

const AnalysisTypeRisk = "risk_assessment"

// RiskAssessment: строка истории оценок риска, только вставка.
type RiskAssessment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	PublicID     string `gorm:"size:36;uniqueIndex"`
	ProjectID    uint   `gorm:"index"`
	AnalysisType string `gorm:"size:50;not null"`

	BudgetRisk   float64
	ScheduleRisk float64
	WeatherRisk  float64
	ResourceRisk float64
	QualityRisk  float64
	OverallScore int
	RiskLevel    string `gorm:"size:16"`

	Recommendations datatypes.JSON
	Confidence      float64
}

func (RiskAssessment) TableName() string {
	return "ai_quality_analysis"
}
