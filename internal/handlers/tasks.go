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

// ЗАДАЧИ ПРОЕКТА

func (h *Handler) ListTasks(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	q := h.db.Where("project_id = ?", project.ID).Order("start_date asc").Order("id asc")
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type taskRequest struct {
	Title        string `json:"title"`
	ActivityType string `json:"activity_type"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
	DueDate      string `json:"due_date"`
	AssigneeID   uint   `json:"assignee_id"`
}

func (h *Handler) CreateTask(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if len(title) < 3 {
		respondError(c, http.StatusBadRequest, "task title must be at least 3 characters")
		return
	}

	status := models.TaskStatus(req.Status)
	if status == "" {
		status = models.TaskPending
	}
	if !status.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid task status")
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if start != nil && due != nil && due.Before(*start) {
		respondError(c, http.StatusBadRequest, "due_date is before start_date")
		return
	}

	task := models.Task{
		ProjectID:    project.ID,
		Title:        title,
		ActivityType: models.NormalizeActivityType(req.ActivityType),
		Status:       status,
		StartDate:    start,
		DueDate:      due,
		AssigneeID:   req.AssigneeID,
	}
	if err := h.db.Create(&task).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "task", task.ID, "create", "created task "+task.Title)
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) ChangeTaskStatus(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	status := models.TaskStatus(req.Status)
	if !status.IsValid() {
		respondError(c, http.StatusBadRequest, "invalid task status")
		return
	}

	var task models.Task
	if err := h.db.Where("project_id = ? AND id = ?", project.ID, taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = models.ErrTaskNotFound
		}
		h.fail(c, err)
		return
	}

	prev := task.Status
	if err := h.db.Model(&task).Update("status", status).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "task", task.ID, "status_change",
			string(prev)+" -> "+string(status))
	}

	c.JSON(http.StatusOK, task)
}
