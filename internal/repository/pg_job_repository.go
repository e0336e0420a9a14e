package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	pgxV5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"adventure-server/internal/models"
)

const (
	insertJobQuery = `
        INSERT INTO jobs (id, theme, status, created_at)
        VALUES ($1, $2, $3, $4)
    `
	getJobQuery = `
        SELECT id, theme, status, story_id, error, created_at, completed_at
        FROM jobs WHERE id = $1
    `
	markJobProcessingQuery = `
        UPDATE jobs SET status = 'processing' WHERE id = $1
    `
	markJobCompletedQuery = `
        UPDATE jobs SET status = 'completed', story_id = $2, completed_at = now() WHERE id = $1
    `
	markJobFailedQuery = `
        UPDATE jobs SET status = 'failed', error = $2, completed_at = now() WHERE id = $1
    `
)

type pgJobRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgJobRepository создает репозиторий задач генерации поверх PostgreSQL.
func NewPgJobRepository(pool *pgxpool.Pool, logger *zap.Logger) JobRepository {
	return &pgJobRepository{
		pool:   pool,
		logger: logger.Named("PgJobRepo"),
	}
}

// Create сохраняет новую задачу. Статус задается вызывающей стороной
// (на практике всегда pending).
func (r *pgJobRepository) Create(ctx context.Context, job *models.Job) error {
	_, err := r.pool.Exec(ctx, insertJobQuery, job.ID, job.Theme, job.Status, job.CreatedAt)
	if err != nil {
		r.logger.Error("Error creating job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// GetByID возвращает текущий снимок задачи.
func (r *pgJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := pgxscan.Get(ctx, r.pool, &job, getJobQuery, id)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return nil, models.ErrJobNotFound
		}
		r.logger.Error("Error getting job", zap.String("job_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &job, nil
}

// MarkProcessing переводит задачу в статус processing.
func (r *pgJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.updateStatus(ctx, id, markJobProcessingQuery)
}

// MarkCompleted переводит задачу в статус completed и привязывает историю.
func (r *pgJobRepository) MarkCompleted(ctx context.Context, id, storyID uuid.UUID) error {
	commandTag, err := r.pool.Exec(ctx, markJobCompletedQuery, id, storyID)
	if err != nil {
		r.logger.Error("Error marking job completed", zap.String("job_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to mark job %s completed: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

// MarkFailed переводит задачу в статус failed с текстом ошибки.
func (r *pgJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	commandTag, err := r.pool.Exec(ctx, markJobFailedQuery, id, errMsg)
	if err != nil {
		r.logger.Error("Error marking job failed", zap.String("job_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

func (r *pgJobRepository) updateStatus(ctx context.Context, id uuid.UUID, query string) error {
	commandTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Error updating job status", zap.String("job_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update status of job %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrJobNotFound
	}
	return nil
}
