package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"buildops/internal/database"
	"buildops/internal/models"

	"github.com/gin-gonic/gin"
)

//
// КОМПАНИИ
//

func (h *Handler) ListCompanies(c *gin.Context) {
	var companies []models.Company
	if err := h.db.Order("name asc").Find(&companies).Error; err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

type companyRequest struct {
	Name         string `json:"name"`
	Industry     string `json:"industry"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Notes        string `json:"notes"`
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	company := models.Company{
		Name:         strings.TrimSpace(req.Name),
		Industry:     strings.TrimSpace(req.Industry),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Notes:        strings.TrimSpace(req.Notes),
	}

	if len(company.Name) < 3 {
		respondError(c, http.StatusBadRequest, "company name must be at least 3 characters")
		return
	}

	// --- уникальность имени и e-mail ---
	if msg, err := h.companyConflict(company); err != nil {
		h.fail(c, err)
		return
	} else if msg != "" {
		respondError(c, http.StatusConflict, msg)
		return
	}

	if err := h.db.Create(&company).Error; err != nil {
		h.fail(c, err)
		return
	}

	if uid := sessionUserID(c); uid != 0 {
		database.CreateAuditLog(h.db, uid, "company", company.ID, "create", "created company "+company.Name)
	}

	c.JSON(http.StatusCreated, company)
}

func (h *Handler) companyConflict(company models.Company) (string, error) {
	checks := []struct {
		column, value, msg string
	}{
		{"name", company.Name, "company with this name already exists"},
		{"contact_email", company.ContactEmail, "company with this e-mail already exists"},
	}

	for _, ch := range checks {
		if ch.value == "" {
			continue
		}
		var count int64
		err := h.db.Model(&models.Company{}).
			Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", ch.column), ch.value).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count > 0 {
			return ch.msg, nil
		}
	}
	return "", nil
}
