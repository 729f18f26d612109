package database

import (
	"buildops/internal/models"

	"gorm.io/gorm"
)

// helper для записи в журнал аудита; ошибки записи не мешают основному действию
func CreateAuditLog(db *gorm.DB, userID uint, entity string, entityID uint, action, details string) {
	if db == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	_ = db.Create(&record).Error
}
