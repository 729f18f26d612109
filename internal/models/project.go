package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectType string
type ProjectStatus string

const (
	ProjectResidential    ProjectType = "residential"
	ProjectCommercial     ProjectType = "commercial"
	ProjectIndustrial     ProjectType = "industrial"
	ProjectInfrastructure ProjectType = "infrastructure"
	ProjectRenovation     ProjectType = "renovation"

	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

func (t ProjectType) IsValid() bool {
	switch t {
	case ProjectResidential, ProjectCommercial, ProjectIndustrial,
		ProjectInfrastructure, ProjectRenovation:
		return true
	}
	return false
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Project struct {
	gorm.Model
	CompanyID uint
	Company   Company

	Name        string        `gorm:"size:255;not null"`
	Type        ProjectType   `gorm:"type:varchar(50);not null;index"`
	Status      ProjectStatus `gorm:"type:varchar(50);not null;index"`
	Description string        `gorm:"type:text"`

	Budget               float64
	ActualCost           float64 // заполняется при закрытии проекта
	CompletionPercentage float64 // 0..100

	StartDate *time.Time
	EndDate   *time.Time

	Latitude  *float64
	Longitude *float64

	ManagerID uint // User.ID роли manager/admin

	Tasks          []Task
	Expenses       []Expense
	CostEntries    []CostEntry
	ChangeOrders   []ChangeOrder
	MaterialUsages []MaterialUsage
	TimeEntries    []TimeEntry
	Inspections    []QualityInspection
	DailyReports   []DailyReport
}

// HasCoordinates: можно ли запрашивать прогноз погоды.
func (p Project) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
