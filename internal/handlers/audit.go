package handlers

import (
	"net/http"
	"time"

	"buildops/internal/models"

	"github.com/gin-gonic/gin"
)

const maxAuditRows = 200

type auditEntry struct {
	ID        uint   `json:"id"`
	CreatedAt string `json:"created_at"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Entity    string `json:"entity"`
	EntityID  uint   `json:"entity_id"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

func toAuditEntries(logs []models.AuditLog) []auditEntry {
	out := make([]auditEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, auditEntry{
			ID:        l.ID,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
			UserID:    l.UserID,
			Username:  l.User.Username,
			Entity:    l.Entity,
			EntityID:  l.EntityID,
			Action:    l.Action,
			Details:   l.Details,
		})
	}
	return out
}

// ListAuditLogs: последние записи журнала; фильтр по entity необязателен.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit := queryInt(c, "limit", maxAuditRows)
	if limit <= 0 || limit > maxAuditRows {
		limit = maxAuditRows
	}

	q := h.db.Preload("User").Order("created_at desc").Order("id desc").Limit(limit)
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": toAuditEntries(logs)})
}
