package handlers

import (
	"log/slog"

	"buildops/internal/costs"
	"buildops/internal/database"
	"buildops/internal/risk"
	"buildops/internal/weather"

	"gorm.io/gorm"
)

// Handler держит зависимости HTTP-слоя.
type Handler struct {
	db          *gorm.DB
	store       *database.Store
	scorer      *risk.Scorer
	predictor   *costs.Predictor
	rescheduler *weather.Rescheduler // nil, если не задан WEATHER_API_KEY
	logger      *slog.Logger
}

func New(db *gorm.DB, store *database.Store, scorer *risk.Scorer, predictor *costs.Predictor, rescheduler *weather.Rescheduler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:          db,
		store:       store,
		scorer:      scorer,
		predictor:   predictor,
		rescheduler: rescheduler,
		logger:      logger,
	}
}
