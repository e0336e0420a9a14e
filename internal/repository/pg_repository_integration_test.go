package repository_test // Используем _test пакет для изоляции

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"adventure-server/internal/models"
	"adventure-server/internal/repository"
	"adventure-server/migrations"
	"adventure-server/pkg/migration"
)

// RepositoryTestSuite поднимает PostgreSQL в контейнере и гоняет
// репозитории по настоящей схеме.
type RepositoryTestSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pgPool      *pgxpool.Pool
	storyRepo   repository.StoryRepository
	jobRepo     repository.JobRepository
	logger      *zap.Logger
}

func (s *RepositoryTestSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	// Применяем встроенные миграции
	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, s.pgPool)
	require.NoError(s.T(), migrator.Up(), "Failed to run migrations")

	s.storyRepo = repository.NewPgStoryRepository(s.pgPool, s.logger)
	s.jobRepo = repository.NewPgJobRepository(s.pgPool, s.logger)
}

func (s *RepositoryTestSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
}

func (s *RepositoryTestSuite) SetupTest() {
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE jobs, story_nodes, stories CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

// makeStoryTree собирает минимальное валидное дерево: корень и две концовки
func makeStoryTree() (*models.Story, []*models.StoryNode) {
	story := &models.Story{
		ID:    uuid.New(),
		Title: "Integration Story",
		Theme: "testing",
		// timestamptz хранит микросекунды, наносекунды не переживут чтение
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	winID := uuid.New()
	loseID := uuid.New()
	root := &models.StoryNode{
		ID:      uuid.New(),
		StoryID: story.ID,
		Content: "Root content",
		IsRoot:  true,
		Options: []models.StoryOption{
			{Text: "win", NodeID: winID},
			{Text: "lose", NodeID: loseID},
		},
	}
	win := &models.StoryNode{
		ID: winID, StoryID: story.ID, Content: "Winning end",
		IsEnding: true, IsWinningEnding: true, Options: []models.StoryOption{},
	}
	lose := &models.StoryNode{
		ID: loseID, StoryID: story.ID, Content: "Losing end",
		IsEnding: true, Options: []models.StoryOption{},
	}
	return story, []*models.StoryNode{root, win, lose}
}

func (s *RepositoryTestSuite) TestCreateAndGetCompleteStory() {
	story, nodes := makeStoryTree()
	require.NoError(s.T(), s.storyRepo.CreateStoryTree(s.ctx, story, nodes))

	complete, err := s.storyRepo.GetCompleteStory(s.ctx, story.ID)
	require.NoError(s.T(), err)

	s.Equal(story.ID, complete.ID)
	s.Equal("Integration Story", complete.Title)
	s.Equal("testing", complete.Theme)
	// Сохраняется timestamp из модели, а не момент INSERT
	s.True(story.CreatedAt.Equal(complete.CreatedAt),
		"created_at изменился при сохранении: %v != %v", story.CreatedAt, complete.CreatedAt)
	s.Len(complete.AllNodes, 3)

	s.Require().NotNil(complete.RootNode)
	s.Equal("Root content", complete.RootNode.Content)
	s.Len(complete.RootNode.Options, 2)

	// Дерево из базы проходит структурную валидацию
	s.NoError(complete.Validate())

	// Концовки без вариантов, победная помечена
	winNode := complete.Node(nodes[1].ID)
	s.Require().NotNil(winNode)
	s.True(winNode.IsEnding)
	s.True(winNode.IsWinningEnding)
	s.Empty(winNode.Options)
}

func (s *RepositoryTestSuite) TestGetCompleteStory_NotFound() {
	_, err := s.storyRepo.GetCompleteStory(s.ctx, uuid.New())
	s.ErrorIs(err, models.ErrStoryNotFound)
}

func (s *RepositoryTestSuite) TestGetNode() {
	story, nodes := makeStoryTree()
	require.NoError(s.T(), s.storyRepo.CreateStoryTree(s.ctx, story, nodes))

	node, err := s.storyRepo.GetNode(s.ctx, story.ID, nodes[0].ID)
	require.NoError(s.T(), err)
	s.Equal("Root content", node.Content)
	s.Len(node.Options, 2)

	// Узел чужой истории не отдается
	_, err = s.storyRepo.GetNode(s.ctx, uuid.New(), nodes[0].ID)
	s.ErrorIs(err, models.ErrNodeNotFound)
}

func (s *RepositoryTestSuite) TestSecondRootRejected() {
	story, nodes := makeStoryTree()
	require.NoError(s.T(), s.storyRepo.CreateStoryTree(s.ctx, story, nodes))

	// Частичный уникальный индекс запрещает второй корень в той же истории
	extraRoot := &models.StoryNode{
		ID: uuid.New(), StoryID: story.ID, Content: "Another root",
		IsRoot: true, IsEnding: true, Options: []models.StoryOption{},
	}
	_, err := s.pgPool.Exec(s.ctx,
		`INSERT INTO story_nodes (id, story_id, content, is_root, is_ending, is_winning_ending, options)
         VALUES ($1, $2, $3, $4, $5, $6, '[]')`,
		extraRoot.ID, extraRoot.StoryID, extraRoot.Content, extraRoot.IsRoot, extraRoot.IsEnding, extraRoot.IsWinningEnding)
	s.Error(err)
}

func (s *RepositoryTestSuite) TestJobLifecycle_Completed() {
	job := &models.Job{
		ID:        uuid.New(),
		Theme:     "testing",
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(s.T(), s.jobRepo.Create(s.ctx, job))

	got, err := s.jobRepo.GetByID(s.ctx, job.ID)
	require.NoError(s.T(), err)
	s.Equal(models.JobStatusPending, got.Status)
	s.True(job.CreatedAt.Equal(got.CreatedAt),
		"created_at изменился при сохранении: %v != %v", job.CreatedAt, got.CreatedAt)
	s.Nil(got.StoryID)
	s.Nil(got.CompletedAt)

	require.NoError(s.T(), s.jobRepo.MarkProcessing(s.ctx, job.ID))
	got, err = s.jobRepo.GetByID(s.ctx, job.ID)
	require.NoError(s.T(), err)
	s.Equal(models.JobStatusProcessing, got.Status)

	story, nodes := makeStoryTree()
	require.NoError(s.T(), s.storyRepo.CreateStoryTree(s.ctx, story, nodes))
	require.NoError(s.T(), s.jobRepo.MarkCompleted(s.ctx, job.ID, story.ID))

	got, err = s.jobRepo.GetByID(s.ctx, job.ID)
	require.NoError(s.T(), err)
	s.Equal(models.JobStatusCompleted, got.Status)
	s.Require().NotNil(got.StoryID)
	s.Equal(story.ID, *got.StoryID)
	s.NotNil(got.CompletedAt)
}

func (s *RepositoryTestSuite) TestJobLifecycle_Failed() {
	job := &models.Job{
		ID:        uuid.New(),
		Theme:     "testing",
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(s.T(), s.jobRepo.Create(s.ctx, job))
	require.NoError(s.T(), s.jobRepo.MarkProcessing(s.ctx, job.ID))
	require.NoError(s.T(), s.jobRepo.MarkFailed(s.ctx, job.ID, "story generation failed"))

	got, err := s.jobRepo.GetByID(s.ctx, job.ID)
	require.NoError(s.T(), err)
	s.Equal(models.JobStatusFailed, got.Status)
	s.Equal("story generation failed", got.Error)
	s.Nil(got.StoryID)
	s.NotNil(got.CompletedAt)
}

func (s *RepositoryTestSuite) TestJob_NotFound() {
	_, err := s.jobRepo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, models.ErrJobNotFound)

	s.ErrorIs(s.jobRepo.MarkProcessing(s.ctx, uuid.New()), models.ErrJobNotFound)
	s.ErrorIs(s.jobRepo.MarkCompleted(s.ctx, uuid.New(), uuid.New()), models.ErrJobNotFound)
	s.ErrorIs(s.jobRepo.MarkFailed(s.ctx, uuid.New(), "x"), models.ErrJobNotFound)
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryTestSuite))
}
