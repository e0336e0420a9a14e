package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus представляет статус задачи генерации истории
type JobStatus string

// Возможные статусы задач
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal возвращает true, если задача больше не будет обновляться.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job представляет жизненный цикл одного асинхронного запроса генерации.
// Записи задач никогда не удаляются: клиент опрашивает статус по ID
// и после завершения забирает story_id или текст ошибки.
type Job struct {
	ID          uuid.UUID  `json:"job_id" db:"id"`
	Theme       string     `json:"theme" db:"theme"`
	Status      JobStatus  `json:"status" db:"status"`
	StoryID     *uuid.UUID `json:"story_id,omitempty" db:"story_id"`
	Error       string     `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
