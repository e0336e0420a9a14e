package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"adventure-server/internal/models"
	"adventure-server/internal/repository"
)

// MockStoryRepository is a mock type for the repository.StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

func (_m *MockStoryRepository) CreateStoryTree(ctx context.Context, story *models.Story, nodes []*models.StoryNode) error {
	ret := _m.Called(ctx, story, nodes)
	return ret.Error(0)
}

func (_m *MockStoryRepository) GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error) {
	ret := _m.Called(ctx, storyID)

	var r0 *models.CompleteStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.CompleteStory)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) GetNode(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	ret := _m.Called(ctx, storyID, nodeID)

	var r0 *models.StoryNode
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoryNode)
	}
	return r0, ret.Error(1)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)

// MockJobRepository is a mock type for the repository.JobRepository type
type MockJobRepository struct {
	mock.Mock
}

func (_m *MockJobRepository) Create(ctx context.Context, job *models.Job) error {
	ret := _m.Called(ctx, job)
	return ret.Error(0)
}

func (_m *MockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Job
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Job)
	}
	return r0, ret.Error(1)
}

func (_m *MockJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *MockJobRepository) MarkCompleted(ctx context.Context, id, storyID uuid.UUID) error {
	ret := _m.Called(ctx, id, storyID)
	return ret.Error(0)
}

func (_m *MockJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	ret := _m.Called(ctx, id, errMsg)
	return ret.Error(0)
}

// NewMockJobRepository creates a new instance of MockJobRepository.
func NewMockJobRepository(t interface {
	mock.TestingT
	Helper()
}) *MockJobRepository {
	m := &MockJobRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.JobRepository = (*MockJobRepository)(nil)
