package models

import "gorm.io/gorm"

// Company: владелец проектов (генподрядчик / застройщик)
type Company struct {
	gorm.Model
	Name         string `gorm:"size:255;not null"`
	Industry     string `gorm:"size:100"` // жилое, коммерческое, дорожное и т.п.
	ContactName  string `gorm:"size:255"`
	ContactEmail string `gorm:"size:255"`
	ContactPhone string `gorm:"size:50"`
	Notes        string `gorm:"type:text"`

	Projects []Project
}
