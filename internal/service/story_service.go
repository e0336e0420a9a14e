package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adventure-server/internal/ai"
	"adventure-server/internal/config"
	"adventure-server/internal/models"
	"adventure-server/internal/repository"
	"adventure-server/pkg/taskrunner"
)

// StoryService определяет бизнес-логику генерации и чтения историй
type StoryService interface {
	// CreateStoryJob валидирует тему, создает задачу генерации и запускает
	// ее в фоне. Возвращается сразу, не дожидаясь генерации.
	CreateStoryJob(ctx context.Context, theme string) (*models.Job, error)
	// GetJob возвращает текущий статус задачи генерации.
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	// GetCompleteStory возвращает историю с полным деревом узлов.
	GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error)
	// MakeChoice разрешает выбор варианта в узле и возвращает следующий узел.
	// Состояние на сервере не изменяется.
	MakeChoice(ctx context.Context, storyID, nodeID uuid.UUID, optionIndex int) (*models.StoryNode, error)
}

type storyServiceImpl struct {
	storyRepo repository.StoryRepository
	jobRepo   repository.JobRepository
	aiClient  ai.Client
	runner    *taskrunner.Runner
	cfg       *config.Config
	logger    *zap.Logger
}

// NewStoryService создает новый сервис историй
func NewStoryService(
	storyRepo repository.StoryRepository,
	jobRepo repository.JobRepository,
	aiClient ai.Client,
	runner *taskrunner.Runner,
	cfg *config.Config,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		storyRepo: storyRepo,
		jobRepo:   jobRepo,
		aiClient:  aiClient,
		runner:    runner,
		cfg:       cfg,
		logger:    logger.Named("StoryService"),
	}
}

// CreateStoryJob создает задачу генерации истории по теме
func (s *storyServiceImpl) CreateStoryJob(ctx context.Context, theme string) (*models.Job, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, models.ErrThemeEmpty
	}
	if len([]rune(theme)) > s.cfg.ThemeMaxLength {
		return nil, models.ErrThemeTooLong
	}

	job := &models.Job{
		ID:        uuid.New(),
		Theme:     theme,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		s.logger.Error("Failed to create generation job", zap.Error(err))
		return nil, models.ErrInternalServer
	}

	err := s.runner.Submit(ctx, "story_generation", func(taskCtx context.Context) error {
		return s.processGeneration(taskCtx, job.ID, theme)
	})
	if err != nil {
		// Задача уже создана в статусе pending; фиксируем отказ запуска,
		// чтобы клиент при опросе не ждал вечно
		s.logger.Error("Failed to submit generation task", zap.String("job_id", job.ID.String()), zap.Error(err))
		if markErr := s.jobRepo.MarkFailed(ctx, job.ID, "generation task was not started"); markErr != nil {
			s.logger.Error("Failed to mark job failed", zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("Generation job accepted",
		zap.String("job_id", job.ID.String()),
		zap.Int("theme_chars", len([]rune(theme))))
	return job, nil
}

// processGeneration выполняет полный цикл генерации: один вызов AI, разбор
// ответа и единственная запись дерева в базу. Повторных попыток нет - любая
// ошибка переводит задачу в статус failed.
func (s *storyServiceImpl) processGeneration(ctx context.Context, jobID uuid.UUID, theme string) (err error) {
	log := s.logger.With(zap.String("job_id", jobID.String()))

	// Паника в генерации не должна оставить задачу висеть в processing
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Panic during story generation", zap.Any("panic", rec))
			err = s.failJob(ctx, jobID, "story generation failed")
		}
	}()

	if err := s.jobRepo.MarkProcessing(ctx, jobID); err != nil {
		log.Error("Failed to mark job processing", zap.Error(err))
		return err
	}

	systemPrompt := ai.BuildSystemPrompt(s.cfg.StoryMaxDepth, s.cfg.StoryMaxOptions)
	userInput := ai.BuildUserInput(theme)

	rawResponse, usage, err := s.aiClient.GenerateText(ctx, systemPrompt, userInput)
	if err != nil {
		log.Error("AI generation failed", zap.Error(err))
		return s.failJob(ctx, jobID, "story generation failed")
	}
	log.Debug("AI response received", zap.Int("total_tokens", usage.TotalTokens))

	title, nodes, err := ai.ParseStoryTree(rawResponse, ai.TreeBounds{
		MaxDepth:   s.cfg.StoryMaxDepth,
		MaxOptions: s.cfg.StoryMaxOptions,
	})
	if err != nil {
		log.Error("AI response rejected", zap.Error(err))
		return s.failJob(ctx, jobID, "story generation produced malformed output")
	}

	story := &models.Story{
		ID:        uuid.New(),
		Title:     title,
		Theme:     theme,
		CreatedAt: time.Now().UTC(),
	}
	for _, node := range nodes {
		node.StoryID = story.ID
	}

	if err := s.storyRepo.CreateStoryTree(ctx, story, nodes); err != nil {
		log.Error("Failed to persist story tree", zap.Error(err))
		return s.failJob(ctx, jobID, "failed to save generated story")
	}

	if err := s.jobRepo.MarkCompleted(ctx, jobID, story.ID); err != nil {
		log.Error("Failed to mark job completed", zap.Error(err))
		return err
	}

	log.Info("Story generated",
		zap.String("story_id", story.ID.String()),
		zap.Int("nodes", len(nodes)),
		zap.Int("total_tokens", usage.TotalTokens))
	return nil
}

// failJob переводит задачу в статус failed. Клиенту уходит общее описание,
// детали остаются в логах.
func (s *storyServiceImpl) failJob(ctx context.Context, jobID uuid.UUID, message string) error {
	if err := s.jobRepo.MarkFailed(ctx, jobID, message); err != nil {
		s.logger.Error("Failed to mark job failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return err
	}
	return nil
}

// GetJob возвращает задачу генерации по ID
func (s *storyServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return s.jobRepo.GetByID(ctx, jobID)
}

// GetCompleteStory возвращает историю с полным деревом узлов
func (s *storyServiceImpl) GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error) {
	return s.storyRepo.GetCompleteStory(ctx, storyID)
}

// MakeChoice возвращает узел, на который указывает выбранный вариант
func (s *storyServiceImpl) MakeChoice(ctx context.Context, storyID, nodeID uuid.UUID, optionIndex int) (*models.StoryNode, error) {
	node, err := s.storyRepo.GetNode(ctx, storyID, nodeID)
	if err != nil {
		return nil, err
	}

	if node.IsEnding {
		return nil, models.ErrNodeIsEnding
	}
	if optionIndex < 0 || optionIndex >= len(node.Options) {
		return nil, models.ErrOptionInvalid
	}

	nextNode, err := s.storyRepo.GetNode(ctx, storyID, node.Options[optionIndex].NodeID)
	if err != nil {
		// Вариант указывает на несуществующий узел - дерево в базе повреждено
		s.logger.Error("Choice target node missing",
			zap.String("story_id", storyID.String()),
			zap.String("node_id", nodeID.String()),
			zap.Int("option_index", optionIndex),
			zap.Error(err))
		return nil, models.ErrStoryTreeInvalid
	}
	return nextNode, nil
}
