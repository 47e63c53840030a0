package repositories

import (
	"context"
	"errors"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
	"gorm.io/gorm"
)

var ErrSessionRecordNotFound = errors.New("session record not found")

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	TaskID    string                `json:"task_id"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "created_at", "updated_at"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

type SessionRepository interface {
	Create(ctx context.Context, session *models.ExamSession) error
	GetByID(ctx context.Context, id string) (*models.ExamSession, error)
	Update(ctx context.Context, session *models.ExamSession) error
	ListByStudent(ctx context.Context, studentID string, filters SessionFilters) ([]*models.ExamSession, int64, error)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSessionRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
