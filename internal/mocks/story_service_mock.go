package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"adventure-server/internal/models"
)

// MockStoryService is a mock type for the service.StoryService type
type MockStoryService struct {
	mock.Mock
}

func (_m *MockStoryService) CreateStoryJob(ctx context.Context, theme string) (*models.Job, error) {
	ret := _m.Called(ctx, theme)

	var r0 *models.Job
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Job)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	ret := _m.Called(ctx, jobID)

	var r0 *models.Job
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Job)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) GetCompleteStory(ctx context.Context, storyID uuid.UUID) (*models.CompleteStory, error) {
	ret := _m.Called(ctx, storyID)

	var r0 *models.CompleteStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.CompleteStory)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryService) MakeChoice(ctx context.Context, storyID, nodeID uuid.UUID, optionIndex int) (*models.StoryNode, error) {
	ret := _m.Called(ctx, storyID, nodeID, optionIndex)

	var r0 *models.StoryNode
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoryNode)
	}
	return r0, ret.Error(1)
}

// NewMockStoryService creates a new instance of MockStoryService.
func NewMockStoryService(t interface {
	mock.TestingT
	Helper()
}) *MockStoryService {
	m := &MockStoryService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}
