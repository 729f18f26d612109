package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"buildops/internal/models"
	"buildops/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCanChangeProjectStatus(t *testing.T) {
	tests := []struct {
		role          models.UserRole
		current, next models.ProjectStatus
		want          bool
	}{
		{models.RoleAdmin, models.StatusCompleted, models.StatusActive, true},
		{models.RoleAdmin, models.StatusActive, models.StatusActive, false},
		{models.RoleManager, models.StatusPlanning, models.StatusActive, true},
		{models.RoleManager, models.StatusPlanning, models.StatusCompleted, false},
		{models.RoleManager, models.StatusActive, models.StatusCompleted, true},
		{models.RoleManager, models.StatusOnHold, models.StatusActive, true},
		{models.RoleManager, models.StatusCompleted, models.StatusActive, false},
		{models.RoleForeman, models.StatusActive, models.StatusOnHold, true},
		{models.RoleForeman, models.StatusOnHold, models.StatusActive, true},
		{models.RoleForeman, models.StatusActive, models.StatusCompleted, false},
		{models.RoleViewer, models.StatusPlanning, models.StatusActive, false},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s %s->%s", tt.role, tt.current, tt.next)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, canChangeProjectStatus(tt.role, tt.current, tt.next))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("2026-04-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC), *d)

	d, err = parseDate("2026-04-03T08:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 3, 13, 0, 0, 0, time.UTC), *d)

	_, err = parseDate("03/04/2026")
	assert.Error(t, err)
}

func TestProjectRequestValidate(t *testing.T) {
	lat, lon := 41.88, -87.63
	bad := 120.0

	valid := projectRequest{Name: "Harbor Office", CompanyID: 1, Type: "commercial", Budget: 1000}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*projectRequest)
	}{
		{"short name", func(r *projectRequest) { r.Name = "ab" }},
		{"no company", func(r *projectRequest) { r.CompanyID = 0 }},
		{"bad type", func(r *projectRequest) { r.Type = "spaceport" }},
		{"negative budget", func(r *projectRequest) { r.Budget = -1 }},
		{"completion over 100", func(r *projectRequest) { r.CompletionPercentage = 101 }},
		{"latitude only", func(r *projectRequest) { r.Latitude = &lat }},
		{"out of range", func(r *projectRequest) { r.Latitude, r.Longitude = &bad, &lon }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.Error(t, r.validate())
		})
	}

	withCoords := valid
	withCoords.Latitude, withCoords.Longitude = &lat, &lon
	assert.NoError(t, withCoords.validate())
}

func TestFailMapsErrors(t *testing.T) {
	h := New(nil, nil, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("risk analysis failed: %w", models.ErrProjectNotFound), http.StatusNotFound},
		{fmt.Errorf("schedule adjustment failed: %w", models.ErrTaskNotFound), http.StatusNotFound},
		{fmt.Errorf("schedule adjustment failed: %w", weather.ErrNotForward), http.StatusBadRequest},
		{weather.ErrNoCoordinates, http.StatusUnprocessableEntity},
		{fmt.Errorf("fetch forecast: %w", weather.ErrForecastUnavailable), http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.fail(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestActivityRequestValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.NoError(t, activityRequest{MinTemperature: f(40), MaxTemperature: f(90)}.validate())
	assert.Error(t, activityRequest{MinTemperature: f(90), MaxTemperature: f(40)}.validate())
	assert.Error(t, activityRequest{MaxWindSpeed: f(-1)}.validate())
	assert.Error(t, activityRequest{MaxHumidity: f(120)}.validate())
}
