package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"buildops/internal/models"
	"buildops/internal/weather"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail переводит ошибку сервиса в HTTP-статус.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrTaskNotFound),
		errors.Is(err, models.ErrActivityNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrNotForward),
		errors.Is(err, weather.ErrUnscheduled):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNoCoordinates):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, weather.ErrForecastUnavailable),
		errors.Is(err, weather.ErrMissingAPIKey):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString("request_id"),
			"error", err,
		)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

// paramID читает положительный числовой параметр пути.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// parseDate принимает "2006-01-02" или RFC3339; для пустой строки nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.New("invalid date " + strconv.Quote(s))
	}
	t = t.UTC()
	return &t, nil
}

func sessionUserID(c *gin.Context) uint {
	uid, _ := sessions.Default(c).Get("user_id").(uint)
	return uid
}

func sessionRole(c *gin.Context) models.UserRole {
	role, _ := sessions.Default(c).Get("role").(string)
	return models.UserRole(role)
}
