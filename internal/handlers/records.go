package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"buildops/internal/database"
	"buildops/internal/models"

	"github.com/gin-gonic/gin"
)

// ЖУРНАЛЫ ПРОЕКТА: расходы, затраты, изменения, материалы, часы, приёмки, отчёты.
// Это входные данные для оценки рисков и прогноза стоимости.

// recordDate: дата записи; по умолчанию сегодня.
func recordDate(s string) (time.Time, error) {
	d, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return *d, nil
}

// createRecord сохраняет запись проекта и пишет аудит по проекту.
func (h *Handler) createRecord(c *gin.Context, projectID uint, record any, details string) {
	if err := h.db.Create(record).Error; err != nil {
		h.fail(c, err)
		return
	}
	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "project", projectID, "record", details)
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) bindRecord(c *gin.Context, req any) (*models.Project, bool) {
	project, ok := h.loadProject(c)
	if !ok {
		return nil, false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return project, true
}

// ---------- расходы ----------

type expenseRequest struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IncurredOn  string  `json:"incurred_on"`
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var req expenseRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.Amount <= 0 {
		respondError(c, http.StatusBadRequest, "amount must be positive")
		return
	}
	date, err := recordDate(req.IncurredOn)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.createRecord(c, project.ID, &models.Expense{
		ProjectID:   project.ID,
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		IncurredOn:  date,
	}, fmt.Sprintf("expense %.2f", req.Amount))
}

// ---------- журнал затрат ----------

type costEntryRequest struct {
	Amount      float64 `json:"amount"`
	CostType    string  `json:"cost_type"`
	EntryDate   string  `json:"entry_date"`
	Description string  `json:"description"`
}

func (h *Handler) CreateCostEntry(c *gin.Context) {
	var req costEntryRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.Amount <= 0 {
		respondError(c, http.StatusBadRequest, "amount must be positive")
		return
	}
	costType := models.CostType(req.CostType)
	switch costType {
	case models.CostLabor, models.CostMaterial, models.CostEquipment, models.CostSubcontract, models.CostOther:
	case "":
		costType = models.CostOther
	default:
		respondError(c, http.StatusBadRequest, "invalid cost_type")
		return
	}
	date, err := recordDate(req.EntryDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.createRecord(c, project.ID, &models.CostEntry{
		ProjectID:   project.ID,
		Amount:      req.Amount,
		CostType:    costType,
		EntryDate:   date,
		Description: strings.TrimSpace(req.Description),
	}, fmt.Sprintf("cost entry %.2f (%s)", req.Amount, costType))
}

// ---------- изменения (change orders) ----------

type changeOrderRequest struct {
	Number string  `json:"number"`
	Title  string  `json:"title"`
	Reason string  `json:"reason"`
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
}

func validReason(r models.ChangeOrderReason) bool {
	switch r {
	case models.ReasonScope, models.ReasonDesign, models.ReasonResource, models.ReasonLabor,
		models.ReasonMaterial, models.ReasonEquipment, models.ReasonSiteCondition, models.ReasonClient:
		return true
	}
	return false
}

func (h *Handler) CreateChangeOrder(c *gin.Context) {
	var req changeOrderRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}

	reason := models.ChangeOrderReason(req.Reason)
	if !validReason(reason) {
		respondError(c, http.StatusBadRequest, "invalid reason")
		return
	}
	status := models.ChangeOrderStatus(req.Status)
	switch status {
	case models.ChangeOrderPending, models.ChangeOrderApproved, models.ChangeOrderRejected:
	case "":
		status = models.ChangeOrderPending
	default:
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	h.createRecord(c, project.ID, &models.ChangeOrder{
		ProjectID: project.ID,
		Number:    strings.TrimSpace(req.Number),
		Title:     strings.TrimSpace(req.Title),
		Reason:    reason,
		Status:    status,
		Amount:    req.Amount,
	}, fmt.Sprintf("change order %s (%s, %s)", req.Number, reason, status))
}

// ---------- материалы ----------

type materialRequest struct {
	MaterialName string  `json:"material_name"`
	Quantity     float64 `json:"quantity"`
	UnitCost     float64 `json:"unit_cost"`
	UsedOn       string  `json:"used_on"`
}

func (h *Handler) CreateMaterialUsage(c *gin.Context) {
	var req materialRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.Quantity <= 0 || req.UnitCost < 0 {
		respondError(c, http.StatusBadRequest, "quantity must be positive and unit_cost non-negative")
		return
	}
	date, err := recordDate(req.UsedOn)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.createRecord(c, project.ID, &models.MaterialUsage{
		ProjectID:    project.ID,
		MaterialName: strings.TrimSpace(req.MaterialName),
		Quantity:     req.Quantity,
		UnitCost:     req.UnitCost,
		UsedOn:       date,
	}, fmt.Sprintf("material %s x%.2f", req.MaterialName, req.Quantity))
}

// ---------- часы ----------

type timeEntryRequest struct {
	UserID     uint    `json:"user_id"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourly_rate"`
	WorkDate   string  `json:"work_date"`
}

func (h *Handler) CreateTimeEntry(c *gin.Context) {
	var req timeEntryRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.Hours <= 0 || req.Hours > 24 || req.HourlyRate < 0 {
		respondError(c, http.StatusBadRequest, "hours must be within (0, 24] and hourly_rate non-negative")
		return
	}
	date, err := recordDate(req.WorkDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = sessionUserID(c)
	}

	h.createRecord(c, project.ID, &models.TimeEntry{
		ProjectID:  project.ID,
		UserID:     userID,
		Hours:      req.Hours,
		HourlyRate: req.HourlyRate,
		WorkDate:   date,
	}, fmt.Sprintf("time entry %.1fh", req.Hours))
}

// ---------- приёмка качества ----------

type inspectionRequest struct {
	InspectionDate string  `json:"inspection_date"`
	Inspector      string  `json:"inspector"`
	Score          float64 `json:"score"`
	DefectCount    int     `json:"defect_count"`
	Passed         bool    `json:"passed"`
	Notes          string  `json:"notes"`
}

func (h *Handler) CreateInspection(c *gin.Context) {
	var req inspectionRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.Score < 0 || req.Score > 100 || req.DefectCount < 0 {
		respondError(c, http.StatusBadRequest, "score must be within 0..100 and defect_count non-negative")
		return
	}
	date, err := recordDate(req.InspectionDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.createRecord(c, project.ID, &models.QualityInspection{
		ProjectID:      project.ID,
		InspectionDate: date,
		Inspector:      strings.TrimSpace(req.Inspector),
		Score:          req.Score,
		DefectCount:    req.DefectCount,
		Passed:         req.Passed,
		Notes:          strings.TrimSpace(req.Notes),
	}, fmt.Sprintf("inspection score %.0f", req.Score))
}

// ---------- ежедневные отчёты ----------

type dailyReportRequest struct {
	ReportDate        string `json:"report_date"`
	WeatherConditions string `json:"weather_conditions"`
	WeatherDelay      bool   `json:"weather_delay"`
	CrewCount         int    `json:"crew_count"`
	Notes             string `json:"notes"`
}

func (h *Handler) CreateDailyReport(c *gin.Context) {
	var req dailyReportRequest
	project, ok := h.bindRecord(c, &req)
	if !ok {
		return
	}
	if req.CrewCount < 0 {
		respondError(c, http.StatusBadRequest, "crew_count must be non-negative")
		return
	}
	date, err := recordDate(req.ReportDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.createRecord(c, project.ID, &models.DailyReport{
		ProjectID:         project.ID,
		ReportDate:        date,
		WeatherConditions: strings.TrimSpace(req.WeatherConditions),
		WeatherDelay:      req.WeatherDelay,
		CrewCount:         req.CrewCount,
		Notes:             strings.TrimSpace(req.Notes),
	}, "daily report "+date.Format(dateLayout))
}
