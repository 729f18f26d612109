package models

import (
	"time"

	"gorm.io/gorm"
)

// Expense: расход по проекту (счета поставщиков, закупки и т.п.)
type Expense struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	Amount      float64
	Category    string `gorm:"size:64"`
	Description string `gorm:"type:text"`
	IncurredOn  time.Time
}

type CostType string

const (
	CostLabor       CostType = "labor"
	CostMaterial    CostType = "material"
	CostEquipment   CostType = "equipment"
	CostSubcontract CostType = "subcontract"
	CostOther       CostType = "other"
)

// CostEntry: проводка в журнале затрат
type CostEntry struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	Amount      float64
	CostType    CostType  `gorm:"type:varchar(20)"`
	EntryDate   time.Time `gorm:"index"`
	Description string    `gorm:"type:text"`
}

type ChangeOrderReason string
type ChangeOrderStatus string

const (
	ReasonScope         ChangeOrderReason = "scope"
	ReasonDesign        ChangeOrderReason = "design"
	ReasonResource      ChangeOrderReason = "resource"
	ReasonLabor         ChangeOrderReason = "labor"
	ReasonMaterial      ChangeOrderReason = "material"
	ReasonEquipment     ChangeOrderReason = "equipment"
	ReasonSiteCondition ChangeOrderReason = "site_condition"
	ReasonClient        ChangeOrderReason = "client_request"

	ChangeOrderPending  ChangeOrderStatus = "pending"
	ChangeOrderApproved ChangeOrderStatus = "approved"
	ChangeOrderRejected ChangeOrderStatus = "rejected"
)

type ChangeOrder struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	Number string            `gorm:"size:32"`
	Title  string            `gorm:"size:255"`
	Reason ChangeOrderReason `gorm:"type:varchar(32)"`
	Status ChangeOrderStatus `gorm:"type:varchar(20)"`
	Amount float64
}

// IsResourceRelated: изменения из-за нехватки людей, материалов или техники.
func (co ChangeOrder) IsResourceRelated() bool {
	switch co.Reason {
	case ReasonResource, ReasonLabor, ReasonMaterial, ReasonEquipment:
		return true
	}
	return false
}

type MaterialUsage struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`

	MaterialName string `gorm:"size:255"`
	Quantity     float64
	UnitCost     float64
	UsedOn       time.Time
}

func (MaterialUsage) TableName() string {
	return "material_usage"
}

func (m MaterialUsage) Cost() float64 {
	return m.Quantity * m.UnitCost
}

type TimeEntry struct {
	gorm.Model
	ProjectID uint `gorm:"index;not null"`
	UserID    uint

	Hours      float64
	HourlyRate float64
	WorkDate   time.Time
}

func (t TimeEntry) Cost() float64 {
	return t.Hours * t.HourlyRate
}
