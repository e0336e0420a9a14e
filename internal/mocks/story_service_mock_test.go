package mocks_test

import (
	"adventure-server/internal/mocks"
	"adventure-server/internal/service"
)

var _ service.StoryService = (*mocks.MockStoryService)(nil)
