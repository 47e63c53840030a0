package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.ExamSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id string) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrSessionRecordNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) Update(ctx context.Context, session *models.ExamSession) error {
	result := s.db.WithContext(ctx).Save(session)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (s SessionPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.SessionFilters) ([]*models.ExamSession, int64, error) {
	var sessions []*models.ExamSession
	var total int64

	// apply filter first
	query := s.db.WithContext(ctx).Model(&models.ExamSession{}).Where("student_id = ?", studentID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TaskID != "" {
		query = query.Where("task_id = ?", filters.TaskID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = query.Order(sessionOrder(filters))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func sessionOrder(filters repositories.SessionFilters) string {
	column := "created_at"
	if filters.SortBy == "updated_at" {
		column = "updated_at"
	}
	direction := "DESC"
	if filters.SortOrder == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s, id ASC", column, direction)
}

// Migrate creates or updates the exam_sessions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ExamSession{})
}
