package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

// MemorySessionRepository backs the gateway when DATABASE_URL is unset.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.ExamSession
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.ExamSession)}
}

func (r *MemorySessionRepository) Create(_ context.Context, session *models.ExamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (*models.ExamSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionRecordNotFound
	}
	out := cloneSession(&s)
	return &out, nil
}

func (r *MemorySessionRepository) Update(_ context.Context, session *models.ExamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return ErrSessionRecordNotFound
	}
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) ListByStudent(_ context.Context, studentID string, filters SessionFilters) ([]*models.ExamSession, int64, error) {
	r.mu.RLock()
	var matched []*models.ExamSession
	for _, s := range r.sessions {
		if s.StudentID != studentID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		if filters.TaskID != "" && s.TaskID != filters.TaskID {
			continue
		}
		c := cloneSession(&s)
		matched = append(matched, &c)
	}
	r.mu.RUnlock()

	desc := filters.SortOrder != "asc"
	byUpdated := filters.SortBy == "updated_at"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].CreatedAt, matched[j].CreatedAt
		if byUpdated {
			a, b = matched[i].UpdatedAt, matched[j].UpdatedAt
		}
		if a.Equal(b) {
			return matched[i].ID < matched[j].ID
		}
		if desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	total := int64(len(matched))
	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []*models.ExamSession{}, total, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func cloneSession(s *models.ExamSession) models.ExamSession {
	c := *s
	if s.Answers != nil {
		c.Answers = append([]byte(nil), s.Answers...)
	}
	return c
}
