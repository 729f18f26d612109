package handlers

import (
	"errors"
	"net/http"
	"strings"

	"buildops/internal/database"
	"buildops/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ====== КАТАЛОГ ПОГОДОЗАВИСИМЫХ РАБОТ ======

func (h *Handler) ListActivities(c *gin.Context) {
	var activities []models.WeatherSensitiveActivity
	if err := h.db.Order("activity_type asc").Find(&activities).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

type activityRequest struct {
	ActivityType     string   `json:"activity_type"`
	Description      string   `json:"description"`
	MinTemperature   *float64 `json:"min_temperature"`
	MaxTemperature   *float64 `json:"max_temperature"`
	MaxWindSpeed     *float64 `json:"max_wind_speed"`
	MaxPrecipitation *float64 `json:"max_precipitation"`
	MaxHumidity      *float64 `json:"max_humidity"`
}

func (r activityRequest) validate() error {
	if r.MinTemperature != nil && r.MaxTemperature != nil && *r.MinTemperature > *r.MaxTemperature {
		return errors.New("min_temperature is above max_temperature")
	}
	for _, v := range []*float64{r.MaxWindSpeed, r.MaxPrecipitation} {
		if v != nil && *v < 0 {
			return errors.New("limits must not be negative")
		}
	}
	if r.MaxHumidity != nil && (*r.MaxHumidity < 0 || *r.MaxHumidity > 100) {
		return errors.New("max_humidity must be within 0..100")
	}
	return nil
}

func (r activityRequest) apply(a *models.WeatherSensitiveActivity) {
	a.Description = strings.TrimSpace(r.Description)
	a.MinTemperature = r.MinTemperature
	a.MaxTemperature = r.MaxTemperature
	a.MaxWindSpeed = r.MaxWindSpeed
	a.MaxPrecipitation = r.MaxPrecipitation
	a.MaxHumidity = r.MaxHumidity
}

func (h *Handler) CreateActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ActivityType = models.NormalizeActivityType(req.ActivityType)
	if req.ActivityType == "" {
		respondError(c, http.StatusBadRequest, "activity_type is required")
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := h.db.Model(&models.WeatherSensitiveActivity{}).
		Where("activity_type = ?", req.ActivityType).
		Count(&count).Error; err != nil {
		h.fail(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "activity type already exists")
		return
	}

	activity := models.WeatherSensitiveActivity{ActivityType: req.ActivityType}
	req.apply(&activity)

	if err := h.db.Create(&activity).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "activity", activity.ID, "create", "created activity "+activity.ActivityType)
	}

	c.JSON(http.StatusCreated, activity)
}

// UpdateActivity заменяет пороги целиком; тип работ не меняется.
func (h *Handler) UpdateActivity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var activity models.WeatherSensitiveActivity
	if err := h.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = models.ErrActivityNotFound
		}
		h.fail(c, err)
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	req.apply(&activity)
	// Save пишет и nil-поля, чтобы порог можно было снять
	if err := h.db.Save(&activity).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "activity", activity.ID, "update", "updated limits for "+activity.ActivityType)
	}

	c.JSON(http.StatusOK, activity)
}
