package handlers

import (
	"fmt"
	"net/http"

	"buildops/internal/database"
	"buildops/internal/weather"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 20

// ====== РИСКИ ======

func (h *Handler) AnalyzeRisk(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}

	assessment, err := h.scorer.Analyze(c.Request.Context(), pid)
	if err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", pid, "risk_analysis",
			fmt.Sprintf("overall %d (%s)", assessment.Overall, assessment.Level))
	}

	c.JSON(http.StatusCreated, assessment)
}

func (h *Handler) RiskHistory(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	history, err := h.scorer.History(c.Request.Context(), project.ID, queryInt(c, "limit", defaultHistoryLimit))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id":  project.ID,
		"assessments": history,
	})
}

// ====== СТОИМОСТЬ ======

func (h *Handler) PredictCost(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), pid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// ====== ПОГОДА ======

func (h *Handler) weatherEnabled(c *gin.Context) bool {
	if h.rescheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "weather analysis is disabled")
		return false
	}
	return true
}

func (h *Handler) AnalyzeWeather(c *gin.Context) {
	if !h.weatherEnabled(c) {
		return
	}
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}

	analysis, err := h.rescheduler.Analyze(c.Request.Context(), pid)
	if err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", pid, "weather_analysis",
			fmt.Sprintf("%d proposals, %d auto-applied", len(analysis.Proposals), analysis.AutoApplied))
	}

	c.JSON(http.StatusOK, analysis)
}

type applyRequest struct {
	TaskID      uint   `json:"task_id"`
	NewDate     string `json:"new_date"`
	Reason      string `json:"reason"`
	ImpactScore int    `json:"impact_score"`
}

func (h *Handler) ApplyWeatherAdjustment(c *gin.Context) {
	if !h.weatherEnabled(c) {
		return
	}
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TaskID == 0 {
		respondError(c, http.StatusBadRequest, "task_id is required")
		return
	}
	if req.ImpactScore < 0 || req.ImpactScore > 10 {
		respondError(c, http.StatusBadRequest, "impact_score must be within 0..10")
		return
	}
	newDate, err := parseDate(req.NewDate)
	if err != nil || newDate == nil {
		respondError(c, http.StatusBadRequest, "new_date is required")
		return
	}

	uid := sessionUserID(c)
	adj, err := h.rescheduler.Apply(c.Request.Context(), pid, weather.ApplyRequest{
		TaskID:      req.TaskID,
		NewDate:     *newDate,
		Reason:      req.Reason,
		ImpactScore: req.ImpactScore,
	}, uid)
	if err != nil {
		h.fail(c, err)
		return
	}

	if uid != 0 {
		database.CreateAuditLog(h.db, uid, "task", req.TaskID, "reschedule",
			fmt.Sprintf("%s -> %s: %s", adj.OriginalDate.Format(dateLayout), adj.NewDate.Format(dateLayout), adj.Reason))
	}

	c.JSON(http.StatusCreated, adj)
}

func (h *Handler) ListWeatherAdjustments(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	rows, err := h.store.ListAdjustments(c.Request.Context(), project.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": rows})
}
