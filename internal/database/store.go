package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buildops/internal/models"

	"gorm.io/gorm"
)

// Store: gorm-реализация хранилищ для risk, costs и weather.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) loadProject(ctx context.Context, projectID uint, preloads ...string) (*models.Project, error) {
	q := s.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}

	var project models.Project
	if err := q.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}
	return &project, nil
}

// ---------- риски ----------

func (s *Store) LoadProjectForRisk(ctx context.Context, projectID uint) (*models.Project, error) {
	return s.loadProject(ctx, projectID, "Tasks", "Expenses", "ChangeOrders", "Inspections", "DailyReports")
}

func (s *Store) SaveRiskAssessment(ctx context.Context, a *models.RiskAssessment) error {
	if a.AnalysisType == "" {
		a.AnalysisType = models.AnalysisTypeRisk
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("save risk assessment: %w", err)
	}
	return nil
}

func (s *Store) ListRiskAssessments(ctx context.Context, projectID uint, limit int) ([]models.RiskAssessment, error) {
	q := s.db.WithContext(ctx).
		Where("project_id = ? AND analysis_type = ?", projectID, models.AnalysisTypeRisk).
		Order("created_at desc").
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.RiskAssessment
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list risk assessments: %w", err)
	}
	return rows, nil
}

// ---------- стоимость ----------

func (s *Store) LoadProjectForCost(ctx context.Context, projectID uint) (*models.Project, error) {
	return s.loadProject(ctx, projectID, "CostEntries", "ChangeOrders", "MaterialUsages", "TimeEntries")
}

func (s *Store) CompletedProjects(ctx context.Context, projectType models.ProjectType, excludeID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("type = ? AND status = ? AND id <> ?", projectType, models.StatusCompleted, excludeID).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list completed projects: %w", err)
	}
	return projects, nil
}

// ---------- погода ----------

func (s *Store) LoadProjectWithTasks(ctx context.Context, projectID uint) (*models.Project, error) {
	return s.loadProject(ctx, projectID, "Tasks")
}

func (s *Store) ListActivities(ctx context.Context) ([]models.WeatherSensitiveActivity, error) {
	var activities []models.WeatherSensitiveActivity
	if err := s.db.WithContext(ctx).Order("activity_type asc").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (s *Store) GetTask(ctx context.Context, projectID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, taskID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task %d: %w", taskID, err)
	}
	return &task, nil
}

// ApplyAdjustment переносит задачу и пишет запись о переносе в одной транзакции.
func (s *Store) ApplyAdjustment(ctx context.Context, task *models.Task, newStart time.Time, adj *models.WeatherScheduleAdjustment) error {
	updates := map[string]any{"start_date": newStart}

	var newDue *time.Time
	if task.StartDate != nil && task.DueDate != nil {
		d := task.DueDate.Add(newStart.Sub(*task.StartDate))
		newDue = &d
		updates["due_date"] = d
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrTaskNotFound
		}
		return tx.Create(adj).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("apply schedule adjustment: %w", err)
	}

	task.StartDate = &newStart
	if newDue != nil {
		task.DueDate = newDue
	}
	return nil
}

func (s *Store) ListAdjustments(ctx context.Context, projectID uint) ([]models.WeatherScheduleAdjustment, error) {
	var rows []models.WeatherScheduleAdjustment
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at desc").
		Order("id desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list schedule adjustments: %w", err)
	}
	return rows, nil
}
