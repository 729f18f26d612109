package database

import (
	_ "embed"
	"fmt"
	"log/slog"

	"buildops/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/activities.yaml
var defaultActivitiesYAML []byte

// SeedAdmin создаёт админа, если в системе ещё нет ни одного.
func SeedAdmin(db *gorm.DB, username, password string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		// админ уже есть
		return nil
	}

	if err := createUser(db, username, password, models.RoleAdmin); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	logger.Info("created default admin user", "username", username)
	return nil
}

// SeedDemoUsers создаёт демо-аккаунты manager и foreman.
func SeedDemoUsers(db *gorm.DB, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	users := []struct {
		Username string
		Password string
		Role     models.UserRole
	}{
		{Username: "manager@buildops.local", Password: "Manager123!", Role: models.RoleManager},
		{Username: "foreman@buildops.local", Password: "Foreman123!", Role: models.RoleForeman},
	}

	for _, u := range users {
		var count int64
		if err := db.Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			logger.Warn("failed to check seed user", "username", u.Username, "error", err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := createUser(db, u.Username, u.Password, u.Role); err != nil {
			logger.Warn("failed to create seed user", "username", u.Username, "error", err)
			continue
		}
		logger.Info("created seed user", "username", u.Username, "role", u.Role)
	}
}

func createUser(db *gorm.DB, username, password string, role models.UserRole) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}).Error
}

type activitySeed struct {
	ActivityType     string   `yaml:"activity_type"`
	Description      string   `yaml:"description"`
	MinTemperature   *float64 `yaml:"min_temperature"`
	MaxTemperature   *float64 `yaml:"max_temperature"`
	MaxWindSpeed     *float64 `yaml:"max_wind_speed"`
	MaxPrecipitation *float64 `yaml:"max_precipitation"`
	MaxHumidity      *float64 `yaml:"max_humidity"`
}

// DefaultActivities разбирает встроенный каталог порогов.
func DefaultActivities() ([]models.WeatherSensitiveActivity, error) {
	var doc struct {
		Activities []activitySeed `yaml:"activities"`
	}
	if err := yaml.Unmarshal(defaultActivitiesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse default activities: %w", err)
	}

	out := make([]models.WeatherSensitiveActivity, 0, len(doc.Activities))
	for _, a := range doc.Activities {
		if a.ActivityType == "" {
			return nil, fmt.Errorf("parse default activities: entry without activity_type")
		}
		out = append(out, models.WeatherSensitiveActivity{
			ActivityType:     a.ActivityType,
			Description:      a.Description,
			MinTemperature:   a.MinTemperature,
			MaxTemperature:   a.MaxTemperature,
			MaxWindSpeed:     a.MaxWindSpeed,
			MaxPrecipitation: a.MaxPrecipitation,
			MaxHumidity:      a.MaxHumidity,
		})
	}
	return out, nil
}

// SeedActivities добавляет недостающие типы работ; существующие пороги не трогает.
func SeedActivities(db *gorm.DB, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaults, err := DefaultActivities()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range defaults {
		var count int64
		if err := db.Model(&models.WeatherSensitiveActivity{}).
			Where("activity_type = ?", a.ActivityType).
			Count(&count).Error; err != nil {
			return created, fmt.Errorf("check activity %s: %w", a.ActivityType, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&a).Error; err != nil {
			return created, fmt.Errorf("create activity %s: %w", a.ActivityType, err)
		}
		created++
	}

	if created > 0 {
		logger.Info("seeded weather-sensitive activities", "created", created)
	}
	return created, nil
}
