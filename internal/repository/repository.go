package repository

import (
	"context"

	"github.com/google/uuid"

	"adventure-server/internal/models"
)

// StoryRepository определяет операции хранения историй.
// Истории создаются один раз целиком и после этого не изменяются.
type StoryRepository interface {
	// CreateStoryTree сохраняет историю вместе со всеми узлами одной транзакцией.
	CreateStoryTree(ctx context.Context, story *models.Story, nodes []*models.StoryNode) error
	// GetCompleteStory возвращает историю с полным деревом узлов.
	// Возвращает models.ErrStoryNotFound, если история не существует.
	GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error)
	// GetNode возвращает один узел истории.
	// Возвращает models.ErrNodeNotFound, если узел не принадлежит истории.
	GetNode(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error)
}

// JobRepository определяет операции над записями задач генерации.
// Записи не удаляются: терминальные статусы остаются доступными для опроса.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	// GetByID возвращает models.ErrJobNotFound для неизвестного ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id, storyID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}
