package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"buildops/internal/database"
	"buildops/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

//
// СПИСОК ПРОЕКТОВ
//

// Список проектов + фильтры company_id / type / status
func (h *Handler) ListProjects(c *gin.Context) {
	dbq := h.db.Preload("Company").Order("created_at desc")

	if cid, err := strconv.Atoi(c.Query("company_id")); err == nil && cid > 0 {
		dbq = dbq.Where("company_id = ?", cid)
	}
	if t := c.Query("type"); t != "" {
		dbq = dbq.Where("type = ?", t)
	}
	if s := c.Query("status"); s != "" {
		dbq = dbq.Where("status = ?", s)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) loadProject(c *gin.Context) (*models.Project, bool) {
	pid, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var project models.Project
	if err := h.db.First(&project, pid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, models.ErrProjectNotFound)
		} else {
			h.fail(c, err)
		}
		return nil, false
	}
	return &project, true
}

func (h *Handler) GetProject(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}

	var project models.Project
	err := h.db.Preload("Company").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("start_date asc, id asc") }).
		First(&project, pid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = models.ErrProjectNotFound
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

//
// СОЗДАНИЕ ПРОЕКТА
//

type projectRequest struct {
	Name                 string   `json:"name"`
	CompanyID            uint     `json:"company_id"`
	Type                 string   `json:"type"`
	Description          string   `json:"description"`
	Budget               float64  `json:"budget"`
	CompletionPercentage float64  `json:"completion_percentage"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	ManagerID            uint     `json:"manager_id"`
}

func (r projectRequest) validate() error {
	if len(strings.TrimSpace(r.Name)) < 3 {
		return errors.New("project name must be at least 3 characters")
	}
	if r.CompanyID == 0 {
		return errors.New("company_id is required")
	}
	if !models.ProjectType(r.Type).IsValid() {
		return errors.New("invalid project type")
	}
	if r.Budget < 0 {
		return errors.New("budget must not be negative")
	}
	if r.CompletionPercentage < 0 || r.CompletionPercentage > 100 {
		return errors.New("completion_percentage must be within 0..100")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90 || *r.Longitude < -180 || *r.Longitude > 180) {
		return errors.New("coordinates out of range")
	}
	return nil
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		respondError(c, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	var company models.Company
	if err := h.db.First(&company, req.CompanyID).Error; err != nil {
		respondError(c, http.StatusBadRequest, "company not found")
		return
	}

	uid := sessionUserID(c)
	managerID := req.ManagerID
	if managerID == 0 {
		managerID = uid
	}

	project := models.Project{
		CompanyID:            company.ID,
		Name:                 strings.TrimSpace(req.Name),
		Type:                 models.ProjectType(req.Type),
		Status:               models.StatusPlanning,
		Description:          strings.TrimSpace(req.Description),
		Budget:               req.Budget,
		CompletionPercentage: req.CompletionPercentage,
		StartDate:            start,
		EndDate:              end,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		ManagerID:            managerID,
	}

	if err := h.db.Omit("Company").Create(&project).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", project.ID, "create", "created project "+project.Name)
	}

	c.JSON(http.StatusCreated, project)
}

//
// ПРОГРЕСС
//

type progressRequest struct {
	CompletionPercentage float64 `json:"completion_percentage"`
}

func (h *Handler) UpdateProgress(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompletionPercentage < 0 || req.CompletionPercentage > 100 {
		respondError(c, http.StatusBadRequest, "completion_percentage must be within 0..100")
		return
	}

	prev := project.CompletionPercentage
	if err := h.db.Model(project).Update("completion_percentage", req.CompletionPercentage).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", project.ID, "progress",
			fmt.Sprintf("completion %.0f%% -> %.0f%%", prev, req.CompletionPercentage))
	}

	c.JSON(http.StatusOK, project)
}

//
// СМЕНА СТАТУСА
//

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

func (h *Handler) ChangeProjectStatus(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	newStatus := models.ProjectStatus(req.Status)
	if !newStatus.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	if !canChangeProjectStatus(sessionRole(c), project.Status, newStatus) {
		respondError(c, http.StatusForbidden, "status change not allowed")
		return
	}

	prev := project.Status
	updates := map[string]any{"status": newStatus}

	// при закрытии фиксируем фактическую стоимость и 100%
	if newStatus == models.StatusCompleted {
		actual := project.ActualCost
		if actual == 0 {
			var err error
			if actual, err = h.ledgerTotal(project.ID); err != nil {
				h.fail(c, err)
				return
			}
		}
		updates["actual_cost"] = actual
		updates["completion_percentage"] = 100.0
	}

	if err := h.db.Model(project).Updates(updates).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", project.ID, "status_change",
			fmt.Sprintf("%s -> %s", prev, newStatus))
	}

	c.JSON(http.StatusOK, project)
}

// ledgerTotal: сумма журнала затрат, материалов и часов.
func (h *Handler) ledgerTotal(projectID uint) (float64, error) {
	var total float64
	sums := []struct {
		model any
		expr  string
	}{
		{&models.CostEntry{}, "COALESCE(SUM(amount), 0)"},
		{&models.MaterialUsage{}, "COALESCE(SUM(quantity * unit_cost), 0)"},
		{&models.TimeEntry{}, "COALESCE(SUM(hours * hourly_rate), 0)"},
	}
	for _, s := range sums {
		var v float64
		if err := h.db.Model(s.model).
			Where("project_id = ?", projectID).
			Select(s.expr).
			Scan(&v).Error; err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// логика ролей
func canChangeProjectStatus(role models.UserRole, current, next models.ProjectStatus) bool {
	if current == next {
		return false
	}

	switch role {

	case models.RoleAdmin:
		return true

	case models.RoleManager:
		switch current {
		case models.StatusPlanning:
			return next == models.StatusActive || next == models.StatusCancelled
		case models.StatusActive:
			return next == models.StatusOnHold || next == models.StatusCompleted || next == models.StatusCancelled
		case models.StatusOnHold:
			return next == models.StatusActive || next == models.StatusCancelled
		}
		return false

	case models.RoleForeman:
		// прораб может только приостановить / возобновить работы
		return (current == models.StatusActive && next == models.StatusOnHold) ||
			(current == models.StatusOnHold && next == models.StatusActive)

	default:
		return false
	}
}

//
// УДАЛЕНИЕ ПРОЕКТА
//

func (h *Handler) DeleteProject(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	if err := h.db.Delete(project).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", project.ID, "delete", "deleted project "+project.Name)
	}

	c.Status(http.StatusNoContent)
}

//
// ИСТОРИЯ ПРОЕКТА
//

func (h *Handler) ProjectHistory(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var logs []models.AuditLog
	if err := h.db.Where("entity = ? AND entity_id = ?", "project", project.ID).
		Preload("User").
		Order("created_at asc").
		Order("id asc").
		Find(&logs).Error; err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": project.ID,
		"logs":       toAuditEntries(logs),
	})
}
